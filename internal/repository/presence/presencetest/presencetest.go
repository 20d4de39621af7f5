// Package presencetest holds behaviour tests shared by every presence backend.
package presencetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tandem/server/internal/repository/presence"
)

type Repo interface {
	Upsert(context.Context, *presence.UpsertParams) error
	Remove(ctx context.Context, roomId, connId string) (bool, error)
	ListUsernames(ctx context.Context, roomId string) ([]string, error)
}

func Run(t *testing.T, newRepo func(t *testing.T) Repo) {
	ctx := context.Background()

	t.Run("InsertionOrder", func(t *testing.T) {
		repo := newRepo(t)
		roomId := uuid.NewString()

		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c1", Username: "alice"}))
		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c2", Username: "bob"}))
		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c3", Username: "alice"}))

		users, err := repo.ListUsernames(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob", "alice"}, users)
	})

	t.Run("RenameKeepsPosition", func(t *testing.T) {
		repo := newRepo(t)
		roomId := uuid.NewString()

		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c1", Username: "alice"}))
		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c2", Username: "bob"}))
		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c1", Username: "carol"}))

		users, err := repo.ListUsernames(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, []string{"carol", "bob"}, users)
	})

	t.Run("Remove", func(t *testing.T) {
		repo := newRepo(t)
		roomId := uuid.NewString()

		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c1", Username: "alice"}))
		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c2", Username: "bob"}))

		removed, err := repo.Remove(ctx, roomId, "c1")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Remove(ctx, roomId, "c1")
		require.NoError(t, err)
		assert.False(t, removed)

		users, err := repo.ListUsernames(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, users)

		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c1", Username: "alice"}))
		users, err = repo.ListUsernames(ctx, roomId)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "alice"}, users)
	})

	t.Run("EmptyRoom", func(t *testing.T) {
		repo := newRepo(t)
		roomId := uuid.NewString()

		users, err := repo.ListUsernames(ctx, roomId)
		require.NoError(t, err)
		assert.Empty(t, users)

		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: roomId, ConnId: "c1", Username: "alice"}))
		_, err = repo.Remove(ctx, roomId, "c1")
		require.NoError(t, err)

		users, err = repo.ListUsernames(ctx, roomId)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("RoomsAreIsolated", func(t *testing.T) {
		repo := newRepo(t)
		first, second := uuid.NewString(), uuid.NewString()

		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: first, ConnId: "c1", Username: "alice"}))
		require.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{RoomId: second, ConnId: "c1", Username: "bob"}))

		users, err := repo.ListUsernames(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, users)
	})

	t.Run("ConcurrentUpserts", func(t *testing.T) {
		repo := newRepo(t)
		roomId := uuid.NewString()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, repo.Upsert(ctx, &presence.UpsertParams{
					RoomId:   roomId,
					ConnId:   fmt.Sprintf("c%d", i),
					Username: fmt.Sprintf("user%d", i),
				}))
			}(i)
		}
		wg.Wait()

		users, err := repo.ListUsernames(ctx, roomId)
		require.NoError(t, err)
		assert.Len(t, users, 20)
	})
}
