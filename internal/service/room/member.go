package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/tandem/server/internal/repository/connection"
	"github.com/tandem/server/internal/repository/presence"
)

type ConnectMemberParams struct {
	RoomId string
	Conn   connection.Conn
}

// ConnectMember adds conn to the room's broadcast group. Frames published
// from now on are queued on conn.
func (s service) ConnectMember(ctx context.Context, params *ConnectMemberParams) (*Session, error) {
	if err := s.connRepo.Add(ctx, params.RoomId, params.Conn); err != nil {
		return nil, fmt.Errorf("failed to add conn: %w", err)
	}

	return newSession(params.RoomId, params.Conn.ID()), nil
}

type JoinParams struct {
	Username *string
}

func (s service) Join(ctx context.Context, session *Session, params *JoinParams) error {
	if session.state == StateClosed {
		return ErrSessionClosed
	}

	username := defaultUsername
	if params.Username != nil {
		username = *params.Username
	}

	unlock := s.presenceLocks.lock(session.RoomId)
	defer unlock()

	if err := s.presenceRepo.Upsert(ctx, &presence.UpsertParams{
		RoomId:   session.RoomId,
		ConnId:   session.ConnId,
		Username: username,
	}); err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}
	session.username = username
	session.state = StatePresent

	if err := s.broadcastUserList(ctx, session.RoomId, ""); err != nil {
		return fmt.Errorf("failed to broadcast user list: %w", err)
	}

	return nil
}

type ChangeUsernameParams struct {
	Username string
}

// ChangeUsername renames the session. The presence list is only touched once
// the session has joined.
func (s service) ChangeUsername(ctx context.Context, session *Session, params *ChangeUsernameParams) error {
	if session.state == StateClosed {
		return ErrSessionClosed
	}

	session.username = params.Username
	if session.state != StatePresent {
		return nil
	}

	unlock := s.presenceLocks.lock(session.RoomId)
	defer unlock()

	if err := s.presenceRepo.Upsert(ctx, &presence.UpsertParams{
		RoomId:   session.RoomId,
		ConnId:   session.ConnId,
		Username: params.Username,
	}); err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}

	if err := s.broadcastUserList(ctx, session.RoomId, ""); err != nil {
		return fmt.Errorf("failed to broadcast user list: %w", err)
	}

	return nil
}

// DisconnectMember removes the session from presence and from the broadcast
// group. Remaining members get the updated user list. It is safe to call more
// than once.
func (s service) DisconnectMember(ctx context.Context, session *Session) error {
	if session.state == StateClosed {
		return nil
	}
	wasPresent := session.state == StatePresent
	session.state = StateClosed

	var errs []error
	if wasPresent {
		unlock := s.presenceLocks.lock(session.RoomId)
		removed, err := s.presenceRepo.Remove(ctx, session.RoomId, session.ConnId)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to remove presence: %w", err))
		}

		if removed {
			if err := s.broadcastUserList(ctx, session.RoomId, session.ConnId); err != nil {
				errs = append(errs, fmt.Errorf("failed to broadcast user list: %w", err))
			}
		}
		unlock()
	}

	if err := s.connRepo.Remove(ctx, session.RoomId, session.ConnId); err != nil && !errors.Is(err, connection.ErrNotFound) {
		errs = append(errs, fmt.Errorf("failed to remove conn: %w", err))
	}

	return errors.Join(errs...)
}
