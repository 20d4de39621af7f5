// Package roomtest holds behaviour tests shared by every room store backend.
package roomtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tandem/server/internal/repository/room"
)

type Repo interface {
	CreateRoom(context.Context, *room.CreateRoomParams) error
	GetRoom(context.Context, string) (room.Room, error)
	IsRoomExists(context.Context, string) (bool, error)
	GetRoomState(context.Context, string) (room.RoomState, error)
	UpdateRoomState(context.Context, *room.UpdateRoomStateParams) error
	GetVideoURL(context.Context, string) (string, error)
	UpdateVideoURL(context.Context, *room.UpdateVideoURLParams) error
	AddChatMessage(context.Context, *room.AddChatMessageParams) (room.ChatMessage, error)
	GetRecentChatMessages(context.Context, *room.GetRecentChatMessagesParams) ([]room.ChatMessage, error)
}

func createRoom(t *testing.T, repo Repo) string {
	t.Helper()

	roomId := uuid.NewString()
	require.NoError(t, repo.CreateRoom(context.Background(), &room.CreateRoomParams{
		RoomId:       roomId,
		VideoURL:     "https://example.com/v.mp4",
		Password:     "secret",
		HostControl:  true,
		HostUsername: "host",
	}))

	return roomId
}

// Run executes the store behaviour suite against repos produced by newRepo.
func Run(t *testing.T, newRepo func(t *testing.T) Repo) {
	ctx := context.Background()

	t.Run("CreateAndGetRoom", func(t *testing.T) {
		repo := newRepo(t)
		roomId := createRoom(t, repo)

		got, err := repo.GetRoom(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, roomId, got.Id)
		assert.Equal(t, "https://example.com/v.mp4", got.VideoURL)
		assert.Equal(t, "secret", got.Password)
		assert.True(t, got.HostControl)
		assert.Equal(t, "host", got.HostUsername)
		assert.False(t, got.CreatedAt.IsZero())

		err = repo.CreateRoom(ctx, &room.CreateRoomParams{RoomId: roomId, HostUsername: "other"})
		assert.ErrorIs(t, err, room.ErrRoomAlreadyExists)
	})

	t.Run("IsRoomExists", func(t *testing.T) {
		repo := newRepo(t)
		roomId := createRoom(t, repo)

		exists, err := repo.IsRoomExists(ctx, roomId)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.IsRoomExists(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = repo.GetRoom(ctx, uuid.NewString())
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
	})

	t.Run("InitialState", func(t *testing.T) {
		repo := newRepo(t)
		roomId := createRoom(t, repo)

		state, err := repo.GetRoomState(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, 0.0, state.CurrentTime)
		assert.False(t, state.IsPlaying)
	})

	t.Run("UpdateRoomStateLastWriteWins", func(t *testing.T) {
		repo := newRepo(t)
		roomId := createRoom(t, repo)

		before := time.Now().Add(-time.Second)
		require.NoError(t, repo.UpdateRoomState(ctx, &room.UpdateRoomStateParams{
			CurrentTime: 10.5,
			IsPlaying:   true,
			RoomId:      roomId,
		}))
		require.NoError(t, repo.UpdateRoomState(ctx, &room.UpdateRoomStateParams{
			CurrentTime: 15.25,
			IsPlaying:   false,
			RoomId:      roomId,
		}))

		state, err := repo.GetRoomState(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, 15.25, state.CurrentTime)
		assert.False(t, state.IsPlaying)
		assert.True(t, state.LastUpdated.After(before), "last updated must be assigned on write")

		err = repo.UpdateRoomState(ctx, &room.UpdateRoomStateParams{RoomId: uuid.NewString()})
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
	})

	t.Run("VideoURL", func(t *testing.T) {
		repo := newRepo(t)
		roomId := createRoom(t, repo)

		videoURL, err := repo.GetVideoURL(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/v.mp4", videoURL)

		require.NoError(t, repo.UpdateVideoURL(ctx, &room.UpdateVideoURLParams{VideoURL: "", RoomId: roomId}))
		videoURL, err = repo.GetVideoURL(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, "", videoURL)

		err = repo.UpdateVideoURL(ctx, &room.UpdateVideoURLParams{VideoURL: "x", RoomId: uuid.NewString()})
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
	})

	t.Run("ChatHistoryOldestFirst", func(t *testing.T) {
		repo := newRepo(t)
		roomId := createRoom(t, repo)

		ids := make(map[string]struct{})
		for i := 0; i < 5; i++ {
			msg, err := repo.AddChatMessage(ctx, &room.AddChatMessageParams{
				Username: "alice",
				Content:  fmt.Sprintf("message %d", i),
				RoomId:   roomId,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, msg.Id)
			assert.Equal(t, "alice", msg.Username)
			ids[msg.Id] = struct{}{}
		}
		assert.Len(t, ids, 5, "message ids must be unique")

		messages, err := repo.GetRecentChatMessages(ctx, &room.GetRecentChatMessagesParams{Limit: 3, RoomId: roomId})
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "message 2", messages[0].Content)
		assert.Equal(t, "message 3", messages[1].Content)
		assert.Equal(t, "message 4", messages[2].Content)

		all, err := repo.GetRecentChatMessages(ctx, &room.GetRecentChatMessagesParams{Limit: 50, RoomId: roomId})
		require.NoError(t, err)
		assert.Len(t, all, 5)
		assert.Equal(t, "message 0", all[0].Content)
	})

	t.Run("ChatHistoryEmpty", func(t *testing.T) {
		repo := newRepo(t)
		roomId := createRoom(t, repo)

		messages, err := repo.GetRecentChatMessages(ctx, &room.GetRecentChatMessagesParams{Limit: 50, RoomId: roomId})
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("ChatOnMissingRoom", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.AddChatMessage(ctx, &room.AddChatMessageParams{
			Username: "alice",
			Content:  "hi",
			RoomId:   uuid.NewString(),
		})
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
	})
}
