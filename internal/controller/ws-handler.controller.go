package controller

import (
	"context"
	"fmt"

	"github.com/tandem/server/internal/service/room"
)

type JoinInput struct {
	Username *string `json:"username"`
}

func (c controller) handleJoin(ctx context.Context, input JoinInput) error {
	session := c.getSessionFromCtx(ctx)

	if err := c.roomService.Join(ctx, session, &room.JoinParams{
		Username: input.Username,
	}); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	return nil
}

type UsernameChangeInput struct {
	Username *string `json:"username" validate:"required"`
}

func (c controller) handleUsernameChange(ctx context.Context, input UsernameChangeInput) error {
	session := c.getSessionFromCtx(ctx)

	if err := c.roomService.ChangeUsername(ctx, session, &room.ChangeUsernameParams{
		Username: *input.Username,
	}); err != nil {
		return fmt.Errorf("failed to change username: %w", err)
	}

	return nil
}

type PlayerInput struct {
	CurrentTime *float64 `json:"current_time" validate:"required,gte=0"`
}

func (c controller) handlePlay(ctx context.Context, input PlayerInput) error {
	session := c.getSessionFromCtx(ctx)

	if err := c.roomService.UpdatePlayerState(ctx, session, &room.UpdatePlayerStateParams{
		Type:        room.TypePlay,
		CurrentTime: *input.CurrentTime,
	}); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}

	return nil
}

func (c controller) handlePause(ctx context.Context, input PlayerInput) error {
	session := c.getSessionFromCtx(ctx)

	if err := c.roomService.UpdatePlayerState(ctx, session, &room.UpdatePlayerStateParams{
		Type:        room.TypePause,
		CurrentTime: *input.CurrentTime,
	}); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	return nil
}

type SeekInput struct {
	CurrentTime *float64 `json:"current_time" validate:"required,gte=0"`
	IsPlaying   *bool    `json:"is_playing"`
}

func (c controller) handleSeek(ctx context.Context, input SeekInput) error {
	session := c.getSessionFromCtx(ctx)

	var isPlaying bool
	if input.IsPlaying != nil {
		isPlaying = *input.IsPlaying
	}

	if err := c.roomService.UpdatePlayerState(ctx, session, &room.UpdatePlayerStateParams{
		Type:        room.TypeSeek,
		CurrentTime: *input.CurrentTime,
		IsPlaying:   isPlaying,
	}); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	return nil
}

type VideoChangeInput struct {
	VideoURL *string `json:"video_url" validate:"required"`
}

func (c controller) handleVideoChange(ctx context.Context, input VideoChangeInput) error {
	session := c.getSessionFromCtx(ctx)

	if err := c.roomService.UpdateVideo(ctx, session, &room.UpdateVideoParams{
		VideoURL: *input.VideoURL,
	}); err != nil {
		return fmt.Errorf("failed to change video: %w", err)
	}

	return nil
}

type ChatInput struct {
	Content string `json:"content"`
}

func (c controller) handleChat(ctx context.Context, input ChatInput) error {
	session := c.getSessionFromCtx(ctx)

	if err := c.roomService.SendChatMessage(ctx, session, &room.SendChatMessageParams{
		Content: input.Content,
	}); err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	return nil
}
