package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tandem/server/internal/repository/connection"
	"github.com/tandem/server/internal/repository/presence"
	"github.com/tandem/server/internal/repository/room"
	"github.com/tandem/server/pkg/validator"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrChatRejected  = errors.New("chat message rejected")
	ErrSessionClosed = errors.New("session closed")
)

const defaultUsername = "Guest"

type iRoomRepo interface {
	CreateRoom(context.Context, *room.CreateRoomParams) error
	GetRoom(context.Context, string) (room.Room, error)
	IsRoomExists(context.Context, string) (bool, error)
	GetRoomState(context.Context, string) (room.RoomState, error)
	UpdateRoomState(context.Context, *room.UpdateRoomStateParams) error
	GetVideoURL(context.Context, string) (string, error)
	UpdateVideoURL(context.Context, *room.UpdateVideoURLParams) error
	AddChatMessage(context.Context, *room.AddChatMessageParams) (room.ChatMessage, error)
	GetRecentChatMessages(context.Context, *room.GetRecentChatMessagesParams) ([]room.ChatMessage, error)
}

type iPresenceRepo interface {
	Upsert(context.Context, *presence.UpsertParams) error
	Remove(ctx context.Context, roomId, connId string) (bool, error)
	ListUsernames(ctx context.Context, roomId string) ([]string, error)
}

type iConnRepo interface {
	Add(ctx context.Context, roomId string, conn connection.Conn) error
	Remove(ctx context.Context, roomId, connId string) error
	Publish(context.Context, *connection.PublishParams) error
}

type Config struct {
	ChatHistoryLimit int
}

type service struct {
	roomRepo         iRoomRepo
	presenceRepo     iPresenceRepo
	connRepo         iConnRepo
	validate         *validator.Validator
	presenceLocks    *roomLocks
	chatHistoryLimit int
	logger           *slog.Logger
}

func NewService(roomRepo iRoomRepo, presenceRepo iPresenceRepo, connRepo iConnRepo, cfg Config, logger *slog.Logger) *service {
	return &service{
		roomRepo:         roomRepo,
		presenceRepo:     presenceRepo,
		connRepo:         connRepo,
		validate:         validator.NewValidator(),
		presenceLocks:    newRoomLocks(),
		chatHistoryLimit: cfg.ChatHistoryLimit,
		logger:           logger,
	}
}
