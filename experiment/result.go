package experiment

import (
	"context"

	"github.com/google/uuid"
)

// Result aggregates the observations of a single run: the control, every
// candidate in execution order, and the candidates that failed to match
// partitioned into mismatched and ignored.
type Result[T any] struct {
	// ID uniquely identifies this run's result.
	ID string
	// Experiment is the configuration that produced the result.
	Experiment *Experiment[T]
	// Control is the control behavior's observation.
	Control *Observation[T]
	// Candidates holds the non-control observations in execution order.
	Candidates []*Observation[T]
	// Mismatched holds candidates that did not match the control and were
	// not ignored.
	Mismatched []*Observation[T]
	// Ignored holds candidates that did not match the control but were
	// accepted by an ignore predicate.
	Ignored []*Observation[T]
}

// Matched reports whether every candidate matched the control.
func (r *Result[T]) Matched() bool {
	return len(r.Mismatched) == 0 && len(r.Ignored) == 0
}

// HasMismatches reports whether any candidate mismatched without being
// ignored.
func (r *Result[T]) HasMismatches() bool { return len(r.Mismatched) > 0 }

// HasIgnores reports whether any mismatch was ignored.
func (r *Result[T]) HasIgnores() bool { return len(r.Ignored) > 0 }

// newResult evaluates the candidates against the control. The returned
// error is an escalated compare or ignore failure and aborts the run.
func newResult[T any](ctx context.Context, e *Experiment[T], control *Observation[T], candidates []*Observation[T]) (*Result[T], error) {
	result := &Result[T]{
		ID:         uuid.NewString(),
		Experiment: e,
		Control:    control,
		Candidates: candidates,
	}

	for _, candidate := range candidates {
		matched, err := e.observationsMatch(ctx, control, candidate)
		if err != nil {
			return nil, err
		}
		if matched {
			continue
		}

		ignored, err := e.shouldIgnore(ctx, control, candidate)
		if err != nil {
			return nil, err
		}
		if ignored {
			result.Ignored = append(result.Ignored, candidate)
		} else {
			result.Mismatched = append(result.Mismatched, candidate)
		}
	}

	return result, nil
}

// observationsMatch evaluates equivalence as a guarded compare operation.
// A swallowed comparator failure counts as not matching.
func (e *Experiment[T]) observationsMatch(ctx context.Context, control, candidate *Observation[T]) (bool, error) {
	matched, ok, err := guarded(ctx, e, OperationCompare, func(context.Context) (bool, error) {
		return equivalent(control, candidate, e.comparator)
	})
	if err != nil {
		return false, err
	}

	return ok && matched, nil
}

// shouldIgnore reports whether any ignore predicate accepts the mismatch.
// Predicates run in insertion order; a swallowed predicate failure counts
// as false and does not stop the remaining predicates.
func (e *Experiment[T]) shouldIgnore(ctx context.Context, control, candidate *Observation[T]) (bool, error) {
	for _, pred := range e.ignores {
		ignored, ok, err := guarded(ctx, e, OperationIgnore, func(context.Context) (bool, error) {
			return pred(control.Value, candidate.Value)
		})
		if err != nil {
			return false, err
		}
		if ok && ignored {
			return true, nil
		}
	}

	return false, nil
}
