package panel

import "errors"

// State is the lifecycle position of a panel
type State int

const (
	StateIdle State = iota
	StateReady
	StateSubmitting
	StateSucceeded
	StateFailed
)

// String returns a string representation of the State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is only left through an explicit
// user action.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

var (
	// ErrBusy is returned while a submission is in flight
	ErrBusy = errors.New("a submission is already in progress")

	// ErrInvalidTransition is returned when an action is not allowed in
	// the current state
	ErrInvalidTransition = errors.New("action not allowed in current state")

	// ErrNoFiles is returned by Submit when nothing is selected
	ErrNoFiles = errors.New("no files selected")

	// ErrClosed is returned after Close
	ErrClosed = errors.New("panel is closed")
)

// Event describes one state change
type Event struct {
	From   State
	To     State
	Notice string
}
