package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tandem/server/internal/repository/room"
	"github.com/tandem/server/internal/repository/room/roomtest"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, time.Hour, slog.Default()), s
}

func TestRepo(t *testing.T) {
	roomtest.Run(t, func(t *testing.T) roomtest.Repo {
		repo, _ := newTestRepo(t)
		return repo
	})
}

func TestRoomKeysExpire(t *testing.T) {
	repo, s := newTestRepo(t)
	roomId := "6f1c1c2e-6d7a-4f5e-9a57-1f0b1f9a2c11"

	ctx := context.Background()
	require.NoError(t, repo.CreateRoom(ctx, &room.CreateRoomParams{
		RoomId:       roomId,
		HostUsername: "host",
	}))

	assert.Equal(t, time.Hour, s.TTL("room:"+roomId))
	assert.Equal(t, time.Hour, s.TTL("room:"+roomId+":state"))

	s.FastForward(2 * time.Hour)

	exists, err := repo.IsRoomExists(ctx, roomId)
	require.NoError(t, err)
	assert.False(t, exists)
}
