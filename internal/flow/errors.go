package flow

import (
	"errors"
	"fmt"
)

// Domain error kinds. Callers match with errors.Is to pick the
// patient-facing reply; the detail text carries the offending states.
var (
	// ErrNoActiveFlow is returned when a mutation targets a (clinic,
	// patient) pair with no session, or whose session has expired.
	ErrNoActiveFlow = errors.New("flow: no active flow found")

	// ErrInvalidTransition is returned when the requested state is not
	// reachable from the session's current state.
	ErrInvalidTransition = errors.New("flow: invalid transition")

	// ErrNotConfirmable is returned when confirmation is requested while
	// the session is not in the confirmation state.
	ErrNotConfirmable = errors.New("flow: cannot confirm appointment")
)

func invalidTransition(from, to State) error {
	return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, from, to)
}

func notConfirmable(current State) error {
	return fmt.Errorf("%w from state %s", ErrNotConfirmable, current)
}
