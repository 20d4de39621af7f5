package controller

import (
	"context"
	"errors"

	"github.com/tandem/server/internal/service/room"
	"github.com/tandem/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New(c.validate, c.handleWSError)
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())

	// presence
	wsrouter.Handle(mux, "join", c.handleJoin)
	wsrouter.Handle(mux, "username_change", c.handleUsernameChange)

	// player
	wsrouter.Handle(mux, "play", c.handlePlay)
	wsrouter.Handle(mux, "pause", c.handlePause)
	wsrouter.Handle(mux, "seek", c.handleSeek)
	wsrouter.Handle(mux, "video_change", c.handleVideoChange)

	// chat
	wsrouter.Handle(mux, "chat", c.handleChat)

	return mux
}

// handleWSError never closes the connection. Frames the relay refuses are
// dropped quietly.
func (c controller) handleWSError(ctx context.Context, err error) {
	if wsrouter.IsIgnorable(err) || errors.Is(err, room.ErrChatRejected) {
		c.logger.DebugContext(ctx, "ignored message", "error", err)
		return
	}

	c.logger.WarnContext(ctx, "failed to handle message", "error", err)
}
