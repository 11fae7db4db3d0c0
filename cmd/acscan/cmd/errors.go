package cmd

import (
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/corey/acscan/internal/domain/automaton"
)

// Describe renders err for the terminal, adding guidance for failures a user
// can act on.
func Describe(err error) string {
	var ce *automaton.CapacityError
	switch {
	case errors.Is(err, bolt.ErrTimeout):
		return fmt.Sprintf("%v\n"+
			"  → the report database is locked by another acscan process (watch?)\n"+
			"  → stop it, or run without --record/--incremental", err)
	case errors.As(err, &ce) && ce.Resource == "states":
		return fmt.Sprintf("%v\n"+
			"  → raise the limit:  --max-states %d", err, nextLimit(ce))
	case errors.As(err, &ce) && ce.Resource == "keywords":
		return fmt.Sprintf("%v\n"+
			"  → raise the limit:  --max-keywords %d", err, nextLimit(ce))
	default:
		return err.Error()
	}
}

// nextLimit suggests a limit that clears the failed request with headroom.
func nextLimit(ce *automaton.CapacityError) int {
	n := ce.Limit * 2
	if n < ce.Requested {
		n = ce.Requested
	}
	return n
}
