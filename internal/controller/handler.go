package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tandem/server/internal/service/room"
	"github.com/tandem/server/pkg/ctxlogger"
	"github.com/tandem/server/pkg/rest"
	"github.com/tandem/server/pkg/wsconn"
)

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("room_id", roomId))

	if err := c.roomService.CheckRoomExists(ctx, roomId); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			c.logger.DebugContext(ctx, "room not found")
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
			return
		}

		c.logger.ErrorContext(ctx, "failed to check if room exists", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to upgrade to websocket", "error", err)
		return
	}

	client := wsconn.New(uuid.NewString(), conn, c.sendBufferSize)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", client.ID()))
	if !c.clients.add(client) {
		c.logger.InfoContext(ctx, "server is shutting down")
		client.Terminate()
		return
	}
	defer c.clients.remove(client)

	session, err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{
		RoomId: roomId,
		Conn:   client,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to connect member", "error", err)
		client.Close()
		return
	}
	defer c.disconnect(ctx, session, client)

	snapshot, err := c.roomService.GetSnapshot(ctx, roomId)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to get snapshot", "error", err)
		return
	}

	if err := client.WriteJSON(snapshot.RoomState); err != nil {
		c.logger.WarnContext(ctx, "failed to write room state", "error", err)
		return
	}

	if err := client.WriteJSON(snapshot.ChatHistory); err != nil {
		c.logger.WarnContext(ctx, "failed to write chat history", "error", err)
		return
	}

	client.Start()
	c.logger.InfoContext(ctx, "member connected")

	ctx = context.WithValue(ctx, sessionCtxKey, session)
	if err := c.wsmux.ServeConn(ctx, client); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
			c.logger.InfoContext(ctx, "connection closed unexpectedly", "error", err)
			return
		}
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, session *room.Session, client *wsconn.Client) {
	ctx = context.WithoutCancel(ctx)
	if err := c.roomService.DisconnectMember(ctx, session); err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
	}

	client.Close()
	<-client.Done()
	c.logger.InfoContext(ctx, "member disconnected")
}
