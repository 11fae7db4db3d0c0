package automaton

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned (wrapped in *CapacityError) when a
	// keyword set needs more states or keyword slots than configured.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidConfig is returned for limits that can never produce an automaton.
	ErrInvalidConfig = errors.New("invalid config")
)

// CapacityError describes which bound a build ran into.
// It is permanent for a given keyword set and Config: retrying is pointless
// unless the limit is raised.
type CapacityError struct {
	Resource  string // "states", "keywords" or "output set"
	Limit     int
	Requested int // lower bound on what the keyword set needs
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: %s limit is %d, need at least %d",
		ErrCapacityExceeded, e.Resource, e.Limit, e.Requested)
}

// Unwrap makes errors.Is(err, ErrCapacityExceeded) hold.
func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}
