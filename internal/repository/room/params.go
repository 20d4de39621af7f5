package room

type CreateRoomParams struct {
	RoomId       string
	VideoId      string
	VideoURL     string
	Password     string
	HostControl  bool
	HostUsername string
}

type UpdateRoomStateParams struct {
	CurrentTime float64
	IsPlaying   bool
	RoomId      string
}

type UpdateVideoURLParams struct {
	VideoURL string
	RoomId   string
}

type AddChatMessageParams struct {
	Username string
	Content  string
	RoomId   string
}

type GetRecentChatMessagesParams struct {
	Limit  int
	RoomId string
}
