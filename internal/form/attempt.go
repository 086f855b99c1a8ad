package form

import (
	"errors"
	"fmt"
	"sync"
)

// AttemptState is the phase of a submit attempt.
type AttemptState string

const (
	StateIdle       AttemptState = "idle"
	StateValidating AttemptState = "validating"
	StateUploading  AttemptState = "uploading"
	StateDone       AttemptState = "done"
)

var (
	// ErrAttemptInFlight is returned when submit is triggered while an attempt is running.
	ErrAttemptInFlight = errors.New("submission already in progress")

	// ErrInvalidTransition is returned for a transition the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid attempt state transition")
)

// Attempt tracks a form's submit lifecycle:
//
//	Idle -> Validating -> Idle (invalid, editable again)
//	Idle -> Validating -> Uploading -> Done
//	Idle -> Validating -> Uploading -> Idle (upload failed and treated as fatal)
//
// Done is also a valid starting point for a new attempt. Only one attempt can
// be in flight at a time.
type Attempt struct {
	mu    sync.Mutex
	state AttemptState
}

// NewAttempt returns an attempt in the Idle state.
func NewAttempt() *Attempt {
	return &Attempt{state: StateIdle}
}

// State returns the current phase.
func (a *Attempt) State() AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// InFlight reports whether an attempt is validating or uploading, i.e. whether
// the submit action is disabled.
func (a *Attempt) InFlight() bool {
	s := a.State()
	return s == StateValidating || s == StateUploading
}

// Begin moves Idle or Done to Validating.
func (a *Attempt) Begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case StateIdle, StateDone:
		a.state = StateValidating
		return nil
	default:
		return ErrAttemptInFlight
	}
}

// Invalid returns a validating attempt to Idle so the form is editable again.
func (a *Attempt) Invalid() error {
	return a.transition(StateValidating, StateIdle)
}

// Uploading moves a validated attempt to Uploading.
func (a *Attempt) Uploading() error {
	return a.transition(StateValidating, StateUploading)
}

// Done completes an uploading attempt.
func (a *Attempt) Done() error {
	return a.transition(StateUploading, StateDone)
}

// Failed returns an uploading attempt to Idle after a fatal upload error.
func (a *Attempt) Failed() error {
	return a.transition(StateUploading, StateIdle)
}

func (a *Attempt) transition(from, to AttemptState) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != from {
		return fmt.Errorf("%s -> %s from %s: %w", from, to, a.state, ErrInvalidTransition)
	}
	a.state = to
	return nil
}
