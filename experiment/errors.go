package experiment

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingControl is returned by Run and RunResult when no control
	// behavior was registered.
	ErrMissingControl = errors.New("experiment has no control behavior")

	// ErrDuplicateBehavior is returned by AddControl and AddCandidate when
	// the behavior name is already taken.
	ErrDuplicateBehavior = errors.New("behavior already registered")
)

// MismatchError reports that at least one candidate did not match the
// control and was not ignored. It is returned only by experiments built
// with WithErrorOnMismatch(true), and carries the full Result for
// inspection via errors.As.
type MismatchError[T any] struct {
	Result *Result[T]
}

func (e *MismatchError[T]) Error() string {
	return fmt.Sprintf("experiment %q observed %d mismatched candidate(s)",
		e.Result.Experiment.Name(), len(e.Result.Mismatched))
}
