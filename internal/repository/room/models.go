package room

import "time"

type Room struct {
	Id           string
	CreatedAt    time.Time
	VideoId      string
	VideoURL     string
	Password     string
	HostControl  bool
	HostUsername string
}

// RoomState is the persisted playback position of a room. LastUpdated is
// assigned by the store on every write.
type RoomState struct {
	CurrentTime float64
	IsPlaying   bool
	LastUpdated time.Time
}

type ChatMessage struct {
	Id        string
	RoomId    string
	Username  string
	Content   string
	CreatedAt time.Time
}
