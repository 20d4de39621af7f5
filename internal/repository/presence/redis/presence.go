package redis

import (
	"context"
	"fmt"

	"github.com/tandem/server/internal/repository/presence"
)

func (r repo) Upsert(ctx context.Context, params *presence.UpsertParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	keys := []string{r.getPresenceKey(params.RoomId), r.getPresenceNamesKey(params.RoomId)}
	if err := upsertScript.Run(ctx, r.rc, keys, params.ConnId, params.Username, r.expireDuration.Milliseconds()).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to upsert presence: %w", err)
	}

	return nil
}

func (r repo) Remove(ctx context.Context, roomId, connId string) (bool, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId, "conn_id", connId)
	pipe := r.rc.TxPipeline()
	zremCmd := pipe.ZRem(ctx, r.getPresenceKey(roomId), connId)
	pipe.HDel(ctx, r.getPresenceNamesKey(roomId), connId)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return false, fmt.Errorf("failed to remove presence: %w", err)
	}

	return zremCmd.Val() > 0, nil
}

func (r repo) ListUsernames(ctx context.Context, roomId string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	keys := []string{r.getPresenceKey(roomId), r.getPresenceNamesKey(roomId)}
	res, err := listScript.Run(ctx, r.rc, keys).Slice()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}

	usernames := make([]string, 0, len(res))
	for _, v := range res {
		// a nil entry means the name hash expired before the set
		if username, ok := v.(string); ok {
			usernames = append(usernames, username)
		}
	}

	return usernames, nil
}
