package client

import (
	"fmt"
	"time"
)

// Stream - live stream info (matching the Helix API)
type Stream struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	UserLogin   string    `json:"user_login"`
	UserName    string    `json:"user_name"`
	GameName    string    `json:"game_name"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	ViewerCount int32     `json:"viewer_count"`
	StartedAt   time.Time `json:"started_at"`
}

// IsLive - whether Helix reports the stream as live
func (s Stream) IsLive() bool {
	return s.Type == StreamTypeLive
}

// Uptime - time elapsed since the stream started
func (s Stream) Uptime(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}

	return now.Sub(s.StartedAt).Truncate(time.Second)
}

// ChannelURL - returns canonical URL of the channel
func ChannelURL(channel string) string {
	return fmt.Sprintf("%v/%v", ChannelBaseURL, channel)
}
