package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tandem/server/internal/repository/room"
)

func (r repo) CreateRoom(ctx context.Context, params *room.CreateRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO rooms (id, video_id, video_url, password, host_control, host_username)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		params.RoomId, params.VideoId, params.VideoURL, params.Password, params.HostControl, params.HostUsername,
	); err != nil {
		if isUniqueViolation(err) {
			return room.ErrRoomAlreadyExists
		}
		return fmt.Errorf("failed to insert room: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO room_states (room_id) VALUES ($1)`, params.RoomId); err != nil {
		return fmt.Errorf("failed to insert room state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	var res room.Room
	err := r.pool.QueryRow(ctx, `
		SELECT id, created_at, video_id, video_url, password, host_control, host_username
		FROM rooms WHERE id = $1`, roomId,
	).Scan(&res.Id, &res.CreatedAt, &res.VideoId, &res.VideoURL, &res.Password, &res.HostControl, &res.HostUsername)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return room.Room{}, room.ErrRoomNotFound
		}
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return res, nil
}

func (r repo) IsRoomExists(ctx context.Context, roomId string) (bool, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, roomId).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return exists, nil
}

func (r repo) GetVideoURL(ctx context.Context, roomId string) (string, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	var videoURL string
	if err := r.pool.QueryRow(ctx, `SELECT video_url FROM rooms WHERE id = $1`, roomId).Scan(&videoURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", room.ErrRoomNotFound
		}
		return "", fmt.Errorf("failed to get video url: %w", err)
	}

	return videoURL, nil
}

func (r repo) UpdateVideoURL(ctx context.Context, params *room.UpdateVideoURLParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	tag, err := r.pool.Exec(ctx, `UPDATE rooms SET video_url = $1 WHERE id = $2`, params.VideoURL, params.RoomId)
	if err != nil {
		return fmt.Errorf("failed to update video url: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return room.ErrRoomNotFound
	}

	return nil
}
