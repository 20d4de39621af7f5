package inmemory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/tandem/server/internal/repository/presence"
)

type roomPresence struct {
	mu      sync.Mutex
	order   []string
	names   map[string]string
	removed bool
}

type repo struct {
	rooms  map[string]*roomPresence
	mu     sync.Mutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]*roomPresence),
		logger: logger,
	}
}

// acquire returns the locked presence of roomId, creating it when missing.
func (r *repo) acquire(roomId string) *roomPresence {
	for {
		r.mu.Lock()
		rp, ok := r.rooms[roomId]
		if !ok {
			rp = &roomPresence{names: make(map[string]string)}
			r.rooms[roomId] = rp
		}
		r.mu.Unlock()

		rp.mu.Lock()
		if !rp.removed {
			return rp
		}
		rp.mu.Unlock()
	}
}

func (r *repo) lookup(roomId string) *roomPresence {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rooms[roomId]
}

func (r *repo) Upsert(ctx context.Context, params *presence.UpsertParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	rp := r.acquire(params.RoomId)
	defer rp.mu.Unlock()

	if _, ok := rp.names[params.ConnId]; !ok {
		rp.order = append(rp.order, params.ConnId)
	}
	rp.names[params.ConnId] = params.Username

	return nil
}

func (r *repo) Remove(ctx context.Context, roomId, connId string) (bool, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "conn_id", connId)
	rp := r.lookup(roomId)
	if rp == nil {
		return false, nil
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	if _, ok := rp.names[connId]; !ok {
		return false, nil
	}

	delete(rp.names, connId)
	rp.order = slices.DeleteFunc(rp.order, func(id string) bool {
		return id == connId
	})

	if len(rp.order) == 0 {
		rp.removed = true
		r.mu.Lock()
		if r.rooms[roomId] == rp {
			delete(r.rooms, roomId)
		}
		r.mu.Unlock()
	}

	return true, nil
}

func (r *repo) ListUsernames(ctx context.Context, roomId string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	rp := r.lookup(roomId)
	if rp == nil {
		return []string{}, nil
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	usernames := make([]string, 0, len(rp.order))
	for _, connId := range rp.order {
		usernames = append(usernames, rp.names[connId])
	}

	return usernames, nil
}
