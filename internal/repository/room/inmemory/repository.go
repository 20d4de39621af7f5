package inmemory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tandem/server/internal/repository/room"
)

type roomRecord struct {
	room  room.Room
	state *room.RoomState
	chat  []room.ChatMessage
}

// repo keeps rooms in process memory. It backs local development and tests.
type repo struct {
	rooms  map[string]*roomRecord
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]*roomRecord),
		logger: logger,
	}
}

func (r *repo) CreateRoom(ctx context.Context, params *room.CreateRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[params.RoomId]; ok {
		return room.ErrRoomAlreadyExists
	}

	now := time.Now()
	r.rooms[params.RoomId] = &roomRecord{
		room: room.Room{
			Id:           params.RoomId,
			CreatedAt:    now,
			VideoId:      params.VideoId,
			VideoURL:     params.VideoURL,
			Password:     params.Password,
			HostControl:  params.HostControl,
			HostUsername: params.HostUsername,
		},
		state: &room.RoomState{LastUpdated: now},
	}

	return nil
}

func (r *repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.rooms[roomId]
	if !ok {
		return room.Room{}, room.ErrRoomNotFound
	}

	return record.room, nil
}

func (r *repo) IsRoomExists(ctx context.Context, roomId string) (bool, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomId]
	return ok, nil
}

func (r *repo) GetRoomState(ctx context.Context, roomId string) (room.RoomState, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.rooms[roomId]
	if !ok {
		return room.RoomState{}, room.ErrRoomNotFound
	}

	if record.state == nil {
		return room.RoomState{}, room.ErrRoomStateNotFound
	}

	return *record.state, nil
}

func (r *repo) UpdateRoomState(ctx context.Context, params *room.UpdateRoomStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	record.state = &room.RoomState{
		CurrentTime: params.CurrentTime,
		IsPlaying:   params.IsPlaying,
		LastUpdated: time.Now(),
	}

	return nil
}

func (r *repo) GetVideoURL(ctx context.Context, roomId string) (string, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.rooms[roomId]
	if !ok {
		return "", room.ErrRoomNotFound
	}

	return record.room.VideoURL, nil
}

func (r *repo) UpdateVideoURL(ctx context.Context, params *room.UpdateVideoURLParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ErrRoomNotFound
	}

	record.room.VideoURL = params.VideoURL

	return nil
}

func (r *repo) AddChatMessage(ctx context.Context, params *room.AddChatMessageParams) (room.ChatMessage, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.rooms[params.RoomId]
	if !ok {
		return room.ChatMessage{}, room.ErrRoomNotFound
	}

	message := room.ChatMessage{
		Id:        ulid.Make().String(),
		RoomId:    params.RoomId,
		Username:  params.Username,
		Content:   params.Content,
		CreatedAt: time.Now(),
	}
	record.chat = append(record.chat, message)

	return message, nil
}

func (r *repo) GetRecentChatMessages(ctx context.Context, params *room.GetRecentChatMessagesParams) ([]room.ChatMessage, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.rooms[params.RoomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	start := 0
	if params.Limit >= 0 && len(record.chat) > params.Limit {
		start = len(record.chat) - params.Limit
	}

	messages := make([]room.ChatMessage, len(record.chat)-start)
	copy(messages, record.chat[start:])

	return messages, nil
}
