package controller

import (
	"context"

	"github.com/tandem/server/internal/service/room"
)

type contextKey int

const (
	sessionCtxKey contextKey = iota
)

func (c controller) getSessionFromCtx(ctx context.Context) *room.Session {
	session, ok := ctx.Value(sessionCtxKey).(*room.Session)
	if !ok {
		return nil
	}

	return session
}
