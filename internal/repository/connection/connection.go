// Package connection groups live connections by room and fans frames out to
// them.
package connection

// Conn is a live connection able to take an encoded frame without blocking.
type Conn interface {
	ID() string
	Send(frame []byte) bool
}

type PublishParams struct {
	RoomId string
	// Frame is encoded to JSON once per publish.
	Frame         any
	ExcludeConnId string
}
