package room

import "time"

const (
	TypeRoomState    = "room_state"
	TypeChatHistory  = "chat_history"
	TypeUserList     = "user_list"
	TypePlay         = "play"
	TypePause        = "pause"
	TypeSeek         = "seek"
	TypeVideoChanged = "video_changed"
	TypeChatMessage  = "chat_message"
)

type RoomStateFrame struct {
	Type        string  `json:"type"`
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
	VideoURL    string  `json:"video_url"`
}

type ChatHistoryEntry struct {
	Id        string    `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistoryFrame struct {
	Type     string             `json:"type"`
	Messages []ChatHistoryEntry `json:"messages"`
}

type UserListFrame struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

type PlayerFrame struct {
	Type        string  `json:"type"`
	CurrentTime float64 `json:"current_time"`
}

type VideoChangedFrame struct {
	Type     string `json:"type"`
	VideoURL string `json:"video_url"`
}

type ChatMessageFrame struct {
	Type     string `json:"type"`
	Id       string `json:"id"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

type RoomState struct {
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
	// unix millis
	LastUpdated int64 `json:"last_updated"`
}

type Room struct {
	Id           string     `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	VideoId      string     `json:"video_id,omitempty"`
	VideoURL     string     `json:"video_url"`
	HasPassword  bool       `json:"has_password"`
	HostControl  bool       `json:"host_control"`
	HostUsername string     `json:"host_username"`
	State        *RoomState `json:"state,omitempty"`
}
