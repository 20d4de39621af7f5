package room

import (
	"context"
	"fmt"

	"github.com/tandem/server/internal/repository/connection"
	"github.com/tandem/server/internal/repository/room"
)

type UpdatePlayerStateParams struct {
	// Type is one of TypePlay, TypePause or TypeSeek.
	Type        string
	CurrentTime float64
	// IsPlaying is only read for TypeSeek.
	IsPlaying bool
}

// UpdatePlayerState stores the new playback state and relays it to every other
// member. Concurrent writers resolve as last write wins.
func (s service) UpdatePlayerState(ctx context.Context, session *Session, params *UpdatePlayerStateParams) error {
	var isPlaying bool
	switch params.Type {
	case TypePlay:
		isPlaying = true
	case TypePause:
		isPlaying = false
	case TypeSeek:
		isPlaying = params.IsPlaying
	default:
		return fmt.Errorf("unsupported player event %q", params.Type)
	}

	if err := s.roomRepo.UpdateRoomState(ctx, &room.UpdateRoomStateParams{
		CurrentTime: params.CurrentTime,
		IsPlaying:   isPlaying,
		RoomId:      session.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to update room state: %w", s.mapRoomErr(err))
	}

	if err := s.connRepo.Publish(ctx, &connection.PublishParams{
		RoomId: session.RoomId,
		Frame: PlayerFrame{
			Type:        params.Type,
			CurrentTime: params.CurrentTime,
		},
		ExcludeConnId: session.ConnId,
	}); err != nil {
		return fmt.Errorf("failed to publish %s: %w", params.Type, err)
	}

	return nil
}

type UpdateVideoParams struct {
	VideoURL string
}

func (s service) UpdateVideo(ctx context.Context, session *Session, params *UpdateVideoParams) error {
	if err := s.roomRepo.UpdateVideoURL(ctx, &room.UpdateVideoURLParams{
		VideoURL: params.VideoURL,
		RoomId:   session.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to update video url: %w", s.mapRoomErr(err))
	}

	if err := s.connRepo.Publish(ctx, &connection.PublishParams{
		RoomId: session.RoomId,
		Frame: VideoChangedFrame{
			Type:     TypeVideoChanged,
			VideoURL: params.VideoURL,
		},
		ExcludeConnId: session.ConnId,
	}); err != nil {
		return fmt.Errorf("failed to publish video changed: %w", err)
	}

	return nil
}
