package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	connInmemory "github.com/tandem/server/internal/repository/connection/inmemory"
	presenceInmemory "github.com/tandem/server/internal/repository/presence/inmemory"
	"github.com/tandem/server/internal/repository/room"
	roomInmemory "github.com/tandem/server/internal/repository/room/inmemory"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	frames []map[string]any
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.NewString()}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(frame []byte) bool {
	var decoded map[string]any
	if err := json.Unmarshal(frame, &decoded); err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, decoded)

	return true
}

func (c *fakeConn) take() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	frames := c.frames
	c.frames = nil

	return frames
}

type failingRoomRepo struct {
	iRoomRepo
}

var errStoreDown = errors.New("store down")

func (failingRoomRepo) UpdateRoomState(context.Context, *room.UpdateRoomStateParams) error {
	return errStoreDown
}

func (failingRoomRepo) AddChatMessage(context.Context, *room.AddChatMessageParams) (room.ChatMessage, error) {
	return room.ChatMessage{}, errStoreDown
}

type testEnv struct {
	service  *service
	roomRepo iRoomRepo
	roomId   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	return newTestEnvWithPresence(t, presenceInmemory.NewRepo(slog.Default()))
}

func newTestEnvWithPresence(t *testing.T, presenceRepo iPresenceRepo) *testEnv {
	t.Helper()

	logger := slog.Default()
	roomRepo := roomInmemory.NewRepo(logger)
	s := NewService(roomRepo, presenceRepo, connInmemory.NewRepo(logger), Config{ChatHistoryLimit: 50}, logger)

	created, err := s.CreateRoom(context.Background(), &CreateRoomParams{
		VideoId:      "v1",
		VideoURL:     "https://example.com/v.mp4",
		HostUsername: "host",
	})
	require.NoError(t, err)

	return &testEnv{service: s, roomRepo: roomRepo, roomId: created.Id}
}

func (e *testEnv) connect(t *testing.T) (*fakeConn, *Session) {
	t.Helper()

	conn := newFakeConn()
	session, err := e.service.ConnectMember(context.Background(), &ConnectMemberParams{RoomId: e.roomId, Conn: conn})
	require.NoError(t, err)

	return conn, session
}

func strPtr(s string) *string { return &s }

func TestCheckRoomExists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.NoError(t, env.service.CheckRoomExists(ctx, env.roomId))
	assert.ErrorIs(t, env.service.CheckRoomExists(ctx, uuid.NewString()), ErrRoomNotFound)
	assert.ErrorIs(t, env.service.CheckRoomExists(ctx, "not-a-uuid"), ErrRoomNotFound)
}

func TestJoinOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, aliceSession := env.connect(t)
	bob, bobSession := env.connect(t)

	require.NoError(t, env.service.Join(ctx, aliceSession, &JoinParams{Username: strPtr("alice")}))
	assert.Equal(t, StatePresent, aliceSession.State())
	require.NoError(t, env.service.Join(ctx, bobSession, &JoinParams{Username: strPtr("bob")}))

	aliceFrames := alice.take()
	require.Len(t, aliceFrames, 2)
	assert.Equal(t, []any{"alice"}, aliceFrames[0]["users"])
	assert.Equal(t, "user_list", aliceFrames[1]["type"])
	assert.Equal(t, []any{"alice", "bob"}, aliceFrames[1]["users"])

	bobFrames := bob.take()
	require.Len(t, bobFrames, 2)
	assert.Equal(t, []any{"alice", "bob"}, bobFrames[1]["users"])
}

// slowListPresenceRepo holds the first ListUsernames result until release is
// closed or the wait times out.
type slowListPresenceRepo struct {
	iPresenceRepo
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *slowListPresenceRepo) ListUsernames(ctx context.Context, roomId string) ([]string, error) {
	users, err := r.iPresenceRepo.ListUsernames(ctx, roomId)

	first := false
	r.once.Do(func() {
		first = true
		close(r.entered)
	})
	if first {
		select {
		case <-r.release:
		case <-time.After(200 * time.Millisecond):
		}
	}

	return users, err
}

func lastUserList(frames []map[string]any) []any {
	var users []any
	for _, frame := range frames {
		if frame["type"] == "user_list" {
			users, _ = frame["users"].([]any)
		}
	}

	return users
}

func TestConcurrentJoinsPublishLatestUserList(t *testing.T) {
	presenceRepo := &slowListPresenceRepo{
		iPresenceRepo: presenceInmemory.NewRepo(slog.Default()),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	env := newTestEnvWithPresence(t, presenceRepo)
	ctx := context.Background()

	observer, _ := env.connect(t)
	alice, aliceSession := env.connect(t)
	bob, bobSession := env.connect(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, env.service.Join(ctx, aliceSession, &JoinParams{Username: strPtr("alice")}))
	}()

	<-presenceRepo.entered
	go func() {
		defer wg.Done()
		defer close(presenceRepo.release)
		assert.NoError(t, env.service.Join(ctx, bobSession, &JoinParams{Username: strPtr("bob")}))
	}()
	wg.Wait()

	want := []any{"alice", "bob"}
	assert.Equal(t, want, lastUserList(observer.take()))
	assert.Equal(t, want, lastUserList(alice.take()))
	assert.Equal(t, want, lastUserList(bob.take()))
}

func TestConcurrentPresenceChangesConverge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	observer, _ := env.connect(t)

	const members = 20
	conns := make([]*fakeConn, members)
	sessions := make([]*Session, members)
	for i := 0; i < members; i++ {
		conns[i], sessions[i] = env.connect(t)
	}

	var wg sync.WaitGroup
	for i := 0; i < members; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, env.service.Join(ctx, sessions[i], &JoinParams{Username: strPtr(fmt.Sprintf("user-%d", i))}))
			if i%2 == 0 {
				assert.NoError(t, env.service.ChangeUsername(ctx, sessions[i], &ChangeUsernameParams{Username: fmt.Sprintf("renamed-%d", i)}))
			}
			if i%4 == 0 {
				assert.NoError(t, env.service.DisconnectMember(ctx, sessions[i]))
			}
		}()
	}
	wg.Wait()

	users, err := env.service.presenceRepo.ListUsernames(ctx, env.roomId)
	require.NoError(t, err)
	require.Len(t, users, members-members/4)

	want := make([]any, 0, len(users))
	for _, username := range users {
		want = append(want, username)
	}

	assert.Equal(t, want, lastUserList(observer.take()))
	for i, conn := range conns {
		if i%4 == 0 {
			continue
		}
		assert.Equal(t, want, lastUserList(conn.take()), "member %d", i)
	}
}

func TestJoinDefaultsToGuest(t *testing.T) {
	env := newTestEnv(t)
	conn, session := env.connect(t)

	require.NoError(t, env.service.Join(context.Background(), session, &JoinParams{}))
	assert.Equal(t, "Guest", session.Username())
	assert.Equal(t, []any{"Guest"}, conn.take()[0]["users"])
}

func TestChangeUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn, session := env.connect(t)

	t.Run("before join only renames", func(t *testing.T) {
		require.NoError(t, env.service.ChangeUsername(ctx, session, &ChangeUsernameParams{Username: "early"}))
		assert.Equal(t, "early", session.Username())
		assert.Equal(t, StateConnected, session.State())
		assert.Empty(t, conn.take())
	})

	t.Run("after join broadcasts", func(t *testing.T) {
		other, otherSession := env.connect(t)
		require.NoError(t, env.service.Join(ctx, otherSession, &JoinParams{Username: strPtr("bob")}))
		require.NoError(t, env.service.Join(ctx, session, &JoinParams{Username: strPtr("alice")}))
		conn.take()
		other.take()

		require.NoError(t, env.service.ChangeUsername(ctx, session, &ChangeUsernameParams{Username: "carol"}))
		assert.Equal(t, []any{"bob", "carol"}, conn.take()[0]["users"])
		assert.Equal(t, []any{"bob", "carol"}, other.take()[0]["users"])
	})
}

func TestPlayerEventsNoEcho(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sender, senderSession := env.connect(t)
	peer, _ := env.connect(t)

	require.NoError(t, env.service.UpdatePlayerState(ctx, senderSession, &UpdatePlayerStateParams{Type: TypePlay, CurrentTime: 10.5}))
	require.NoError(t, env.service.UpdatePlayerState(ctx, senderSession, &UpdatePlayerStateParams{Type: TypePause, CurrentTime: 12}))
	require.NoError(t, env.service.UpdatePlayerState(ctx, senderSession, &UpdatePlayerStateParams{Type: TypeSeek, CurrentTime: 30, IsPlaying: true}))

	assert.Empty(t, sender.take())

	frames := peer.take()
	require.Len(t, frames, 3)
	assert.Equal(t, map[string]any{"type": "play", "current_time": 10.5}, frames[0])
	assert.Equal(t, map[string]any{"type": "pause", "current_time": 12.0}, frames[1])
	assert.Equal(t, map[string]any{"type": "seek", "current_time": 30.0}, frames[2])

	state, err := env.roomRepo.GetRoomState(ctx, env.roomId)
	require.NoError(t, err)
	assert.Equal(t, 30.0, state.CurrentTime)
	assert.True(t, state.IsPlaying)
}

func TestUpdateVideo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sender, senderSession := env.connect(t)
	peer, _ := env.connect(t)

	require.NoError(t, env.service.UpdateVideo(ctx, senderSession, &UpdateVideoParams{VideoURL: ""}))
	assert.Empty(t, sender.take())
	assert.Equal(t, []map[string]any{{"type": "video_changed", "video_url": ""}}, peer.take())

	snapshot, err := env.service.GetSnapshot(ctx, env.roomId)
	require.NoError(t, err)
	assert.Equal(t, "", snapshot.RoomState.VideoURL)
}

func TestSendChatMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sender, senderSession := env.connect(t)
	peer, _ := env.connect(t)
	require.NoError(t, env.service.Join(ctx, senderSession, &JoinParams{Username: strPtr("alice")}))
	sender.take()
	peer.take()

	require.NoError(t, env.service.SendChatMessage(ctx, senderSession, &SendChatMessageParams{Content: "  hi  "}))
	assert.Empty(t, sender.take())

	frames := peer.take()
	require.Len(t, frames, 1)
	assert.Equal(t, "chat_message", frames[0]["type"])
	assert.Equal(t, "alice", frames[0]["username"])
	assert.Equal(t, "hi", frames[0]["content"])
	assert.NotEmpty(t, frames[0]["id"])

	snapshot, err := env.service.GetSnapshot(ctx, env.roomId)
	require.NoError(t, err)
	require.Len(t, snapshot.ChatHistory.Messages, 1)
	assert.Equal(t, frames[0]["id"], snapshot.ChatHistory.Messages[0].Id)
}

func TestSendChatMessageBounds(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"empty", "", true},
		{"whitespace only", "   \n\t", true},
		{"too long", strings.Repeat("a", 1001), true},
		{"exactly max", strings.Repeat("a", 1000), false},
		{"multibyte max", strings.Repeat("é", 1000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, session := env.connect(t)
			peer, _ := env.connect(t)

			err := env.service.SendChatMessage(context.Background(), session, &SendChatMessageParams{Content: tt.content})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrChatRejected)
				assert.Empty(t, peer.take())
				return
			}

			require.NoError(t, err)
			assert.Len(t, peer.take(), 1)
		})
	}
}

func TestStoreFailureSkipsBroadcast(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, session := env.connect(t)
	peer, _ := env.connect(t)
	env.service.roomRepo = failingRoomRepo{iRoomRepo: env.roomRepo}

	err := env.service.UpdatePlayerState(ctx, session, &UpdatePlayerStateParams{Type: TypePlay, CurrentTime: 1})
	assert.ErrorIs(t, err, errStoreDown)

	err = env.service.SendChatMessage(ctx, session, &SendChatMessageParams{Content: "hi"})
	assert.ErrorIs(t, err, errStoreDown)

	assert.Empty(t, peer.take())
}

func TestDisconnectMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, aliceSession := env.connect(t)
	bob, bobSession := env.connect(t)
	require.NoError(t, env.service.Join(ctx, aliceSession, &JoinParams{Username: strPtr("alice")}))
	require.NoError(t, env.service.Join(ctx, bobSession, &JoinParams{Username: strPtr("bob")}))
	alice.take()
	bob.take()

	require.NoError(t, env.service.DisconnectMember(ctx, bobSession))
	assert.Equal(t, StateClosed, bobSession.State())

	assert.Empty(t, bob.take())
	assert.Equal(t, []map[string]any{{"type": "user_list", "users": []any{"alice"}}}, alice.take())

	require.NoError(t, env.service.DisconnectMember(ctx, bobSession))
	assert.Empty(t, alice.take())

	assert.ErrorIs(t, env.service.Join(ctx, bobSession, &JoinParams{}), ErrSessionClosed)
}

func TestDisconnectBeforeJoinIsSilent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	peer, peerSession := env.connect(t)
	require.NoError(t, env.service.Join(ctx, peerSession, &JoinParams{Username: strPtr("alice")}))
	peer.take()

	_, session := env.connect(t)
	require.NoError(t, env.service.DisconnectMember(ctx, session))
	assert.Empty(t, peer.take())
}

func TestGetSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, session := env.connect(t)
	require.NoError(t, env.service.UpdatePlayerState(ctx, session, &UpdatePlayerStateParams{Type: TypePlay, CurrentTime: 42}))
	for _, content := range []string{"one", "two"} {
		require.NoError(t, env.service.SendChatMessage(ctx, session, &SendChatMessageParams{Content: content}))
	}

	snapshot, err := env.service.GetSnapshot(ctx, env.roomId)
	require.NoError(t, err)
	assert.Equal(t, RoomStateFrame{
		Type:        "room_state",
		CurrentTime: 42,
		IsPlaying:   true,
		VideoURL:    "https://example.com/v.mp4",
	}, snapshot.RoomState)
	assert.Equal(t, "chat_history", snapshot.ChatHistory.Type)
	require.Len(t, snapshot.ChatHistory.Messages, 2)
	assert.Equal(t, "one", snapshot.ChatHistory.Messages[0].Content)
	assert.Equal(t, "Guest", snapshot.ChatHistory.Messages[0].Username)

	_, err = env.service.GetSnapshot(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestGetRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	got, err := env.service.GetRoom(ctx, env.roomId)
	require.NoError(t, err)
	assert.Equal(t, env.roomId, got.Id)
	assert.Equal(t, "host", got.HostUsername)
	assert.Equal(t, "v1", got.VideoId)
	assert.False(t, got.HasPassword)
	require.NotNil(t, got.State)
	assert.False(t, got.State.IsPlaying)

	_, err = env.service.GetRoom(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = env.service.GetRoomState(ctx, "bad")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
