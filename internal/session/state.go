package session

import "fmt"

// State is the lifecycle state of a session. It is persisted as its string
// form; anything read back that does not parse into one of the two values is
// data corruption, never a default.
type State int

const (
	// StateWaitingForController marks a session whose owner is waiting for a
	// controller to request to join
	StateWaitingForController State = iota
	// StateInProgress marks a session with a controller admitted
	StateInProgress
)

const (
	stateWaitingForController = "waiting_for_controller"
	stateInProgress           = "in_progress"
)

// String returns the persisted string form of the state
func (s State) String() string {
	switch s {
	case StateWaitingForController:
		return stateWaitingForController
	case StateInProgress:
		return stateInProgress
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseStateError reports a stored value that is not a valid session state
type ParseStateError struct {
	Value string
}

func (e *ParseStateError) Error() string {
	return fmt.Sprintf("failed to parse session state from %q", e.Value)
}

// ParseState parses the persisted string form back into a State
func ParseState(s string) (State, error) {
	switch s {
	case stateWaitingForController:
		return StateWaitingForController, nil
	case stateInProgress:
		return StateInProgress, nil
	default:
		return 0, &ParseStateError{Value: s}
	}
}
