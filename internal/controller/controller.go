package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tandem/server/internal/service/room"
	"github.com/tandem/server/pkg/validator"
	"github.com/tandem/server/pkg/wsrouter"
)

type iRoomService interface {
	CheckRoomExists(ctx context.Context, roomId string) error
	ConnectMember(context.Context, *room.ConnectMemberParams) (*room.Session, error)
	GetSnapshot(ctx context.Context, roomId string) (room.Snapshot, error)
	Join(context.Context, *room.Session, *room.JoinParams) error
	ChangeUsername(context.Context, *room.Session, *room.ChangeUsernameParams) error
	UpdatePlayerState(context.Context, *room.Session, *room.UpdatePlayerStateParams) error
	UpdateVideo(context.Context, *room.Session, *room.UpdateVideoParams) error
	SendChatMessage(context.Context, *room.Session, *room.SendChatMessageParams) error
	DisconnectMember(context.Context, *room.Session) error
	CreateRoom(context.Context, *room.CreateRoomParams) (room.Room, error)
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	GetRoomState(ctx context.Context, roomId string) (room.RoomState, error)
}

type Config struct {
	SendBufferSize int
}

type controller struct {
	roomService    iRoomService
	upgrader       websocket.Upgrader
	validate       *validator.Validator
	wsmux          *wsrouter.WSRouter
	clients        *activeClients
	sendBufferSize int
	logger         *slog.Logger
}

func NewController(roomService iRoomService, cfg Config, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService:    roomService,
		validate:       validator.NewValidator(),
		clients:        newActiveClients(),
		sendBufferSize: cfg.SendBufferSize,
		logger:         logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}

// CloseConnections terminates every live websocket. It is meant to be
// registered with http.Server.RegisterOnShutdown.
func (c controller) CloseConnections() {
	c.clients.terminateAll()
}

// Wait blocks until every connection finished its disconnect path or ctx is
// done.
func (c controller) Wait(ctx context.Context) error {
	return c.clients.wait(ctx)
}

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
