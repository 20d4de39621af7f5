package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tandem/server/internal/repository/connection"
	"github.com/tandem/server/internal/repository/room"
)

func (s service) mapRoomErr(err error) error {
	if errors.Is(err, room.ErrRoomNotFound) {
		return ErrRoomNotFound
	}

	return err
}

func isValidRoomId(roomId string) bool {
	_, err := uuid.Parse(roomId)
	return err == nil
}

// getRoomState returns the stored state, treating a missing state as paused
// at zero.
func (s service) getRoomState(ctx context.Context, roomId string) (room.RoomState, error) {
	state, err := s.roomRepo.GetRoomState(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomStateNotFound) {
			return room.RoomState{}, nil
		}
		return room.RoomState{}, s.mapRoomErr(err)
	}

	return state, nil
}

// broadcastUserList must be called with the room's presence lock held.
func (s service) broadcastUserList(ctx context.Context, roomId, excludeConnId string) error {
	users, err := s.presenceRepo.ListUsernames(ctx, roomId)
	if err != nil {
		return fmt.Errorf("failed to list usernames: %w", err)
	}

	if err := s.connRepo.Publish(ctx, &connection.PublishParams{
		RoomId: roomId,
		Frame: UserListFrame{
			Type:  TypeUserList,
			Users: users,
		},
		ExcludeConnId: excludeConnId,
	}); err != nil {
		return fmt.Errorf("failed to publish user list: %w", err)
	}

	return nil
}
