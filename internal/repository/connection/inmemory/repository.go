package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tandem/server/internal/repository/connection"
)

type repo struct {
	groups map[string]map[string]connection.Conn
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		groups: make(map[string]map[string]connection.Conn),
		logger: logger,
	}
}

func (r *repo) Add(ctx context.Context, roomId string, conn connection.Conn) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "conn_id", conn.ID())
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[roomId]
	if !ok {
		group = make(map[string]connection.Conn)
		r.groups[roomId] = group
	}

	if _, ok := group[conn.ID()]; ok {
		r.logger.DebugContext(ctx, "returned", "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}
	group[conn.ID()] = conn

	return nil
}

func (r *repo) Remove(ctx context.Context, roomId, connId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "conn_id", connId)
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[roomId]
	if !ok {
		return connection.ErrNotFound
	}

	if _, ok := group[connId]; !ok {
		return connection.ErrNotFound
	}
	delete(group, connId)

	if len(group) == 0 {
		delete(r.groups, roomId)
		r.logger.DebugContext(ctx, "room group emptied", "room_id", roomId)
	}

	return nil
}

func (r *repo) Publish(ctx context.Context, params *connection.PublishParams) error {
	frame, err := json.Marshal(params.Frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	r.Deliver(ctx, params.RoomId, frame, params.ExcludeConnId)

	return nil
}

// Deliver enqueues an already encoded frame to every member of roomId except
// excludeConnId.
func (r *repo) Deliver(ctx context.Context, roomId string, frame []byte, excludeConnId string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for connId, conn := range r.groups[roomId] {
		if connId == excludeConnId {
			continue
		}

		if !conn.Send(frame) {
			r.logger.WarnContext(ctx, "dropped frame", "room_id", roomId, "conn_id", connId)
		}
	}
}

func (r *repo) size(roomId string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.groups[roomId])
}
