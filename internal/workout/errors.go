package workout

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSessionState is returned for a transition that is illegal in
	// the session's current state. Use errors.As with *StateError to read the
	// attempted operation and the state.
	ErrInvalidSessionState = errors.New("invalid session state")

	// ErrIntervalClosed is returned when closing an interval that already has an end.
	ErrIntervalClosed = errors.New("interval already closed")

	// ErrIntervalBackwards is returned when an interval would end before it starts.
	ErrIntervalBackwards = errors.New("interval ends before it starts")

	// ErrMalformedPersistedSession is returned when stored session fields
	// cannot be turned back into a session.
	ErrMalformedPersistedSession = errors.New("malformed persisted session")
)

// StateError describes a rejected transition.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s a %s session: %v", e.Op, e.State, ErrInvalidSessionState)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidSessionState
}
