package svcwrap

// State represents the lifecycle state of a supervised instance
type State int

const (
	// StateStopped is the initial state; no process is owned
	StateStopped State = iota
	// StateStarting indicates the process was spawned and readiness is being polled
	StateStarting
	// StateRunning indicates the service answered its health endpoint
	StateRunning
	// StateStopping indicates the process was signalled and shutdown is being polled
	StateStopping
	// StateFailed indicates the last start was aborted after spawning
	StateFailed
)

// State string constants
const (
	stateStoppedStr  = "stopped"
	stateStartingStr = "starting"
	stateRunningStr  = "running"
	stateStoppingStr = "stopping"
	stateFailedStr   = "failed"
	stateUnknownStr  = "unknown"
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateStopped:
		return stateStoppedStr
	case StateStarting:
		return stateStartingStr
	case StateRunning:
		return stateRunningStr
	case StateStopping:
		return stateStoppingStr
	case StateFailed:
		return stateFailedStr
	default:
		return stateUnknownStr
	}
}

// transitional reports whether the state is STARTING or STOPPING
func (s State) transitional() bool {
	return s == StateStarting || s == StateStopping
}
