package room

type SessionState int

const (
	StateConnected SessionState = iota
	StatePresent
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StatePresent:
		return "PRESENT"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Session is the per-connection state. It is owned by the goroutine serving
// the connection and must not be shared.
type Session struct {
	RoomId   string
	ConnId   string
	username string
	state    SessionState
}

func newSession(roomId, connId string) *Session {
	return &Session{
		RoomId: roomId,
		ConnId: connId,
		state:  StateConnected,
	}
}

func (s *Session) Username() string {
	if s.username == "" {
		return defaultUsername
	}

	return s.username
}

func (s *Session) State() SessionState {
	return s.state
}
