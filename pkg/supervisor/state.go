package supervisor

// State - lifecycle state of the supervisor loop
type State int32

const (
	// StateStarting - subscribing to the source
	StateStarting State = iota
	// StateRunning - handling events and reconciling
	StateRunning
	// StateStopping - draining the recordings
	StateStopping
	// StateStopped - all recordings confirmed stopped
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
