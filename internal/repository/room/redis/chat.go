package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/tandem/server/internal/repository/room"
)

func (r repo) AddChatMessage(ctx context.Context, params *room.AddChatMessageParams) (room.ChatMessage, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.isRoomExists(ctx, params.RoomId)
	if err != nil {
		return room.ChatMessage{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return room.ChatMessage{}, room.ErrRoomNotFound
	}

	now := time.Now()
	message := room.ChatMessage{
		Id:        ulid.Make().String(),
		RoomId:    params.RoomId,
		Username:  params.Username,
		Content:   params.Content,
		CreatedAt: now,
	}

	messageKey := r.getChatMessageKey(params.RoomId, message.Id)
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, messageKey, chatMessageHash{
		Username:  message.Username,
		Content:   message.Content,
		CreatedAt: toMillis(now),
	})
	pipe.Expire(ctx, messageKey, r.expireDuration)
	pipe.RPush(ctx, r.getChatListKey(params.RoomId), message.Id)
	r.expireRoom(ctx, pipe, params.RoomId)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.ChatMessage{}, fmt.Errorf("failed to add chat message: %w", err)
	}

	return message, nil
}

func (r repo) GetRecentChatMessages(ctx context.Context, params *room.GetRecentChatMessagesParams) ([]room.ChatMessage, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.isRoomExists(ctx, params.RoomId)
	if err != nil {
		return nil, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return nil, room.ErrRoomNotFound
	}

	if params.Limit == 0 {
		return []room.ChatMessage{}, nil
	}

	start := int64(0)
	if params.Limit > 0 {
		start = -int64(params.Limit)
	}

	messageIds, err := r.rc.LRange(ctx, r.getChatListKey(params.RoomId), start, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, fmt.Errorf("failed to get chat message ids: %w", err)
	}

	pipe := r.rc.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(messageIds))
	for _, messageId := range messageIds {
		cmds = append(cmds, pipe.HGetAll(ctx, r.getChatMessageKey(params.RoomId, messageId)))
	}

	if len(cmds) > 0 {
		if err := r.executePipe(ctx, pipe); err != nil {
			r.logger.DebugContext(ctx, "returned", "error", err)
			return nil, fmt.Errorf("failed to get chat messages: %w", err)
		}
	}

	messages := make([]room.ChatMessage, 0, len(messageIds))
	for i, cmd := range cmds {
		// expired independently of the list
		if len(cmd.Val()) == 0 {
			continue
		}

		var h chatMessageHash
		if err := cmd.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}

		messages = append(messages, room.ChatMessage{
			Id:        messageIds[i],
			RoomId:    params.RoomId,
			Username:  h.Username,
			Content:   h.Content,
			CreatedAt: fromMillis(h.CreatedAt),
		})
	}

	return messages, nil
}
