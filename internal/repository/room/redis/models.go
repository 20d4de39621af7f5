package redis

type roomHash struct {
	CreatedAt    int64  `redis:"created_at"`
	VideoId      string `redis:"video_id"`
	VideoURL     string `redis:"video_url"`
	Password     string `redis:"password"`
	HostControl  bool   `redis:"host_control"`
	HostUsername string `redis:"host_username"`
}

type stateHash struct {
	CurrentTime float64 `redis:"current_time"`
	IsPlaying   bool    `redis:"is_playing"`
	LastUpdated int64   `redis:"last_updated"`
}

type chatMessageHash struct {
	Username  string `redis:"username"`
	Content   string `redis:"content"`
	CreatedAt int64  `redis:"created_at"`
}
