package runner

// State is the lifecycle phase of a Runner.
type State int32

const (
	StateInit State = iota
	StateRunning
	StateSaving
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateSaving:
		return "saving"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
