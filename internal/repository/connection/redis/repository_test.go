package redis

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tandem/server/internal/repository/connection"
	"github.com/tandem/server/internal/repository/connection/inmemory"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	frames []string
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames = append(c.frames, string(frame))
	return true
}

func (c *fakeConn) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.frames...)
}

func newInstance(t *testing.T, ctx context.Context, mr *miniredis.Miniredis) *repo {
	t.Helper()

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	r, err := NewRepo(ctx, rc, inmemory.NewRepo(slog.Default()), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	go r.Run(ctx)

	return r
}

func TestPublishReachesEveryInstance(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	first := newInstance(t, ctx, mr)
	second := newInstance(t, ctx, mr)

	sender, local, remote := &fakeConn{id: "sender"}, &fakeConn{id: "local"}, &fakeConn{id: "remote"}
	require.NoError(t, first.Add(ctx, "room", sender))
	require.NoError(t, first.Add(ctx, "room", local))
	require.NoError(t, second.Add(ctx, "room", remote))

	for _, currentTime := range []float64{1, 2, 3} {
		require.NoError(t, first.Publish(ctx, &connection.PublishParams{
			RoomId:        "room",
			Frame:         map[string]any{"type": "seek", "current_time": currentTime},
			ExcludeConnId: "sender",
		}))
	}

	want := []string{
		`{"current_time":1,"type":"seek"}`,
		`{"current_time":2,"type":"seek"}`,
		`{"current_time":3,"type":"seek"}`,
	}
	assert.Eventually(t, func() bool {
		return len(local.Frames()) == 3 && len(remote.Frames()) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, want, local.Frames())
	assert.Equal(t, want, remote.Frames())
	assert.Empty(t, sender.Frames())
}

func TestRemoveIsLocal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mr := miniredis.RunT(t)
	r := newInstance(t, ctx, mr)

	conn := &fakeConn{id: "a"}
	require.NoError(t, r.Add(ctx, "room", conn))
	require.NoError(t, r.Remove(ctx, "room", "a"))
	assert.ErrorIs(t, r.Remove(ctx, "room", "a"), connection.ErrNotFound)
}
