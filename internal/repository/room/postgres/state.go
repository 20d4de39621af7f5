package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tandem/server/internal/repository/room"
)

func (r repo) GetRoomState(ctx context.Context, roomId string) (room.RoomState, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	var (
		res      room.RoomState
		hasState bool
	)
	err := r.pool.QueryRow(ctx, `
		SELECT s.room_id IS NOT NULL,
		       COALESCE(s.current_position, 0),
		       COALESCE(s.is_playing, FALSE),
		       COALESCE(s.last_updated, r.created_at)
		FROM rooms r
		LEFT JOIN room_states s ON s.room_id = r.id
		WHERE r.id = $1`, roomId,
	).Scan(&hasState, &res.CurrentTime, &res.IsPlaying, &res.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return room.RoomState{}, room.ErrRoomNotFound
		}
		return room.RoomState{}, fmt.Errorf("failed to get room state: %w", err)
	}

	if !hasState {
		return room.RoomState{}, room.ErrRoomStateNotFound
	}

	return res, nil
}

func (r repo) UpdateRoomState(ctx context.Context, params *room.UpdateRoomStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO room_states (room_id, current_position, is_playing, last_updated)
		VALUES ($1, $2, $3, clock_timestamp())
		ON CONFLICT (room_id) DO UPDATE
		SET current_position = EXCLUDED.current_position,
		    is_playing = EXCLUDED.is_playing,
		    last_updated = EXCLUDED.last_updated`,
		params.RoomId, params.CurrentTime, params.IsPlaying,
	); err != nil {
		if isForeignKeyViolation(err) {
			return room.ErrRoomNotFound
		}
		return fmt.Errorf("failed to update room state: %w", err)
	}

	return nil
}
