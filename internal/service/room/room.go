package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tandem/server/internal/repository/room"
)

// CheckRoomExists returns ErrRoomNotFound for malformed ids and for rooms
// absent from the store.
func (s service) CheckRoomExists(ctx context.Context, roomId string) error {
	if !isValidRoomId(roomId) {
		return ErrRoomNotFound
	}

	exists, err := s.roomRepo.IsRoomExists(ctx, roomId)
	if err != nil {
		return fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return ErrRoomNotFound
	}

	return nil
}

type Snapshot struct {
	RoomState   RoomStateFrame
	ChatHistory ChatHistoryFrame
}

// GetSnapshot builds the two frames a newly registered connection receives
// before anything else.
func (s service) GetSnapshot(ctx context.Context, roomId string) (Snapshot, error) {
	state, err := s.getRoomState(ctx, roomId)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get room state: %w", err)
	}

	videoURL, err := s.roomRepo.GetVideoURL(ctx, roomId)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get video url: %w", s.mapRoomErr(err))
	}

	messages, err := s.roomRepo.GetRecentChatMessages(ctx, &room.GetRecentChatMessagesParams{
		Limit:  s.chatHistoryLimit,
		RoomId: roomId,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get recent chat messages: %w", s.mapRoomErr(err))
	}

	history := make([]ChatHistoryEntry, 0, len(messages))
	for _, message := range messages {
		history = append(history, ChatHistoryEntry{
			Id:        message.Id,
			Username:  message.Username,
			Content:   message.Content,
			CreatedAt: message.CreatedAt,
		})
	}

	return Snapshot{
		RoomState: RoomStateFrame{
			Type:        TypeRoomState,
			CurrentTime: state.CurrentTime,
			IsPlaying:   state.IsPlaying,
			VideoURL:    videoURL,
		},
		ChatHistory: ChatHistoryFrame{
			Type:     TypeChatHistory,
			Messages: history,
		},
	}, nil
}

type CreateRoomParams struct {
	VideoId      string
	VideoURL     string
	Password     string
	HostControl  bool
	HostUsername string
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (Room, error) {
	roomId := uuid.NewString()
	if err := s.roomRepo.CreateRoom(ctx, &room.CreateRoomParams{
		RoomId:       roomId,
		VideoId:      params.VideoId,
		VideoURL:     params.VideoURL,
		Password:     params.Password,
		HostControl:  params.HostControl,
		HostUsername: params.HostUsername,
	}); err != nil {
		return Room{}, fmt.Errorf("failed to create room: %w", err)
	}

	return s.GetRoom(ctx, roomId)
}

func (s service) GetRoom(ctx context.Context, roomId string) (Room, error) {
	if !isValidRoomId(roomId) {
		return Room{}, ErrRoomNotFound
	}

	r, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return Room{}, fmt.Errorf("failed to get room: %w", s.mapRoomErr(err))
	}

	state, err := s.GetRoomState(ctx, roomId)
	if err != nil {
		return Room{}, err
	}

	return Room{
		Id:           r.Id,
		CreatedAt:    r.CreatedAt,
		VideoId:      r.VideoId,
		VideoURL:     r.VideoURL,
		HasPassword:  r.Password != "",
		HostControl:  r.HostControl,
		HostUsername: r.HostUsername,
		State:        &state,
	}, nil
}

func (s service) GetRoomState(ctx context.Context, roomId string) (RoomState, error) {
	if !isValidRoomId(roomId) {
		return RoomState{}, ErrRoomNotFound
	}

	state, err := s.getRoomState(ctx, roomId)
	if err != nil {
		return RoomState{}, fmt.Errorf("failed to get room state: %w", err)
	}

	var lastUpdated int64
	if !state.LastUpdated.IsZero() {
		lastUpdated = state.LastUpdated.UnixMilli()
	}

	return RoomState{
		CurrentTime: state.CurrentTime,
		IsPlaying:   state.IsPlaying,
		LastUpdated: lastUpdated,
	}, nil
}
