package lifecycle

import "time"

// State represents the lifecycle state of an observer.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateReleasing
	StateReleased
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateReleasing:
		return "Releasing"
	case StateReleased:
		return "Released"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateReleased || s == StateFailed
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Manager manages the lifecycle state machine for an observer.
type Manager interface {
	// State returns the current lifecycle state.
	State() State

	// TransitionTo attempts to transition to a new state.
	// Returns an error if the transition is not valid.
	TransitionTo(newState State, reason string) error

	// WaitWithTimeout waits for all workers to finish with a timeout.
	// Returns ErrShutdownTimeout if the timeout expires.
	WaitWithTimeout(timeout time.Duration) error

	// AddWorker increments the worker count.
	AddWorker()

	// WorkerDone decrements the worker count.
	WorkerDone()
}
