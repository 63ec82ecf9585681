package monitor

import (
	"time"

	"gitlab.com/adam.stanek/livearchiver/pkg/client"
)

// EventType - kind of stream state notification
type EventType int

const (
	// EventOnline - channel went live
	EventOnline EventType = iota
	// EventUpdate - channel is still live (heartbeat)
	EventUpdate
	// EventOffline - channel went offline
	EventOffline
)

func (t EventType) String() string {
	switch t {
	case EventOnline:
		return "online"
	case EventUpdate:
		return "update"
	case EventOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Event - stream state notification
type Event struct {
	Type    EventType
	Channel string
	// Stream - latest stream info, nil for EventOffline
	Stream *client.Stream
	Time   time.Time
}
