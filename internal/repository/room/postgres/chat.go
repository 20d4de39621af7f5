package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/tandem/server/internal/repository/room"
)

func (r repo) AddChatMessage(ctx context.Context, params *room.AddChatMessageParams) (room.ChatMessage, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	messageId, err := uuid.NewV7()
	if err != nil {
		return room.ChatMessage{}, fmt.Errorf("failed to generate message id: %w", err)
	}

	message := room.ChatMessage{
		Id:       messageId.String(),
		RoomId:   params.RoomId,
		Username: params.Username,
		Content:  params.Content,
	}
	if err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, room_id, username, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		message.Id, message.RoomId, message.Username, message.Content,
	).Scan(&message.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return room.ChatMessage{}, room.ErrRoomNotFound
		}
		return room.ChatMessage{}, fmt.Errorf("failed to insert chat message: %w", err)
	}

	return message, nil
}

func (r repo) GetRecentChatMessages(ctx context.Context, params *room.GetRecentChatMessagesParams) ([]room.ChatMessage, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.IsRoomExists(ctx, params.RoomId)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, room.ErrRoomNotFound
	}

	// negative limit means no limit, LIMIT NULL
	var limit *int
	if params.Limit >= 0 {
		limit = &params.Limit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, username, content, created_at
		FROM chat_messages
		WHERE room_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, params.RoomId, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]room.ChatMessage, 0)
	for rows.Next() {
		var message room.ChatMessage
		if err := rows.Scan(&message.Id, &message.RoomId, &message.Username, &message.Content, &message.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat messages: %w", err)
	}

	slices.Reverse(messages)

	return messages, nil
}
