package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/tandem/server/internal/repository/room"
)

func (r repo) GetRoomState(ctx context.Context, roomId string) (room.RoomState, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	exists, err := r.isRoomExists(ctx, roomId)
	if err != nil {
		return room.RoomState{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return room.RoomState{}, room.ErrRoomNotFound
	}

	cmd := r.rc.HGetAll(ctx, r.getStateKey(roomId))
	res, err := cmd.Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.RoomState{}, fmt.Errorf("failed to get room state: %w", err)
	}

	if len(res) == 0 {
		return room.RoomState{}, room.ErrRoomStateNotFound
	}

	var h stateHash
	if err := cmd.Scan(&h); err != nil {
		return room.RoomState{}, fmt.Errorf("failed to scan room state: %w", err)
	}

	return room.RoomState{
		CurrentTime: h.CurrentTime,
		IsPlaying:   h.IsPlaying,
		LastUpdated: fromMillis(h.LastUpdated),
	}, nil
}

func (r repo) UpdateRoomState(ctx context.Context, params *room.UpdateRoomStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.isRoomExists(ctx, params.RoomId)
	if err != nil {
		return fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return room.ErrRoomNotFound
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, r.getStateKey(params.RoomId), stateHash{
		CurrentTime: params.CurrentTime,
		IsPlaying:   params.IsPlaying,
		LastUpdated: toMillis(time.Now()),
	})
	r.expireRoom(ctx, pipe, params.RoomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to update room state: %w", err)
	}

	return nil
}
