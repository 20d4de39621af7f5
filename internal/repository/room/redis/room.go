package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/tandem/server/internal/repository/room"
)

func (r repo) CreateRoom(ctx context.Context, params *room.CreateRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	roomKey := r.getRoomKey(params.RoomId)
	now := toMillis(time.Now())

	created, err := r.rc.HSetNX(ctx, roomKey, "created_at", now).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to create room: %w", err)
	}

	if !created {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomAlreadyExists)
		return room.ErrRoomAlreadyExists
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, roomKey, roomHash{
		CreatedAt:    now,
		VideoId:      params.VideoId,
		VideoURL:     params.VideoURL,
		Password:     params.Password,
		HostControl:  params.HostControl,
		HostUsername: params.HostUsername,
	})
	pipe.HSet(ctx, r.getStateKey(params.RoomId), stateHash{
		CurrentTime: 0,
		IsPlaying:   false,
		LastUpdated: now,
	})
	r.expireRoom(ctx, pipe, params.RoomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	cmd := r.rc.HGetAll(ctx, r.getRoomKey(roomId))
	res, err := cmd.Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if len(res) == 0 {
		return room.Room{}, room.ErrRoomNotFound
	}

	var h roomHash
	if err := cmd.Scan(&h); err != nil {
		return room.Room{}, fmt.Errorf("failed to scan room: %w", err)
	}

	return room.Room{
		Id:           roomId,
		CreatedAt:    fromMillis(h.CreatedAt),
		VideoId:      h.VideoId,
		VideoURL:     h.VideoURL,
		Password:     h.Password,
		HostControl:  h.HostControl,
		HostUsername: h.HostUsername,
	}, nil
}

func (r repo) IsRoomExists(ctx context.Context, roomId string) (bool, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	exists, err := r.isRoomExists(ctx, roomId)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return exists, nil
}

func (r repo) GetVideoURL(ctx context.Context, roomId string) (string, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	res, err := r.rc.HMGet(ctx, r.getRoomKey(roomId), "created_at", "video_url").Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return "", fmt.Errorf("failed to get video url: %w", err)
	}

	if res[0] == nil {
		return "", room.ErrRoomNotFound
	}

	videoURL, _ := res[1].(string)

	return videoURL, nil
}

func (r repo) UpdateVideoURL(ctx context.Context, params *room.UpdateVideoURLParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.isRoomExists(ctx, params.RoomId)
	if err != nil {
		return fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return room.ErrRoomNotFound
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, r.getRoomKey(params.RoomId), "video_url", params.VideoURL)
	r.expireRoom(ctx, pipe, params.RoomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to update video url: %w", err)
	}

	return nil
}
