// Package presence tracks which connections have announced themselves in a
// room and under which display name.
package presence

type UpsertParams struct {
	RoomId   string
	ConnId   string
	Username string
}
