package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) getStateKey(roomId string) string {
	return "room:" + roomId + ":state"
}

func (r repo) getChatListKey(roomId string) string {
	return "room:" + roomId + ":chat"
}

func (r repo) getChatMessageKey(roomId, messageId string) string {
	return "room:" + roomId + ":chat:" + messageId
}

// expireRoom refreshes the ttl of the keys shared by the whole room.
func (r repo) expireRoom(ctx context.Context, pipe redis.Pipeliner, roomId string) {
	pipe.Expire(ctx, r.getRoomKey(roomId), r.expireDuration)
	pipe.Expire(ctx, r.getStateKey(roomId), r.expireDuration)
	pipe.Expire(ctx, r.getChatListKey(roomId), r.expireDuration)
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

func (r repo) isRoomExists(ctx context.Context, roomId string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getRoomKey(roomId)).Result()
	if err != nil {
		return false, err
	}

	return res > 0, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
