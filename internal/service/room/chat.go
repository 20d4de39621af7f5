package room

import (
	"context"
	"fmt"
	"strings"

	"github.com/tandem/server/internal/repository/connection"
	"github.com/tandem/server/internal/repository/room"
)

type chatContent struct {
	Content string `json:"content" validate:"required,max=1000"`
}

type SendChatMessageParams struct {
	Content string
}

// SendChatMessage persists the trimmed message and relays it to every other
// member. Empty or oversized content yields ErrChatRejected.
func (s service) SendChatMessage(ctx context.Context, session *Session, params *SendChatMessageParams) error {
	content := chatContent{Content: strings.TrimSpace(params.Content)}
	if validationErrors, ok := s.validate.Validate(content); !ok {
		return fmt.Errorf("%w: %s", ErrChatRejected, validationErrors[0].Message)
	}

	message, err := s.roomRepo.AddChatMessage(ctx, &room.AddChatMessageParams{
		Username: session.Username(),
		Content:  content.Content,
		RoomId:   session.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to add chat message: %w", s.mapRoomErr(err))
	}

	if err := s.connRepo.Publish(ctx, &connection.PublishParams{
		RoomId: session.RoomId,
		Frame: ChatMessageFrame{
			Type:     TypeChatMessage,
			Id:       message.Id,
			Username: message.Username,
			Content:  message.Content,
		},
		ExcludeConnId: session.ConnId,
	}); err != nil {
		return fmt.Errorf("failed to publish chat message: %w", err)
	}

	return nil
}
