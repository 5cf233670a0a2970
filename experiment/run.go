package experiment

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// Run executes the experiment and returns the control's value. A failure
// captured from the control is re-signaled on its original channel: an
// error is returned unchanged, a panic payload is re-panicked.
//
// When the experiment is gated off (fewer than two behaviors, the handler
// reporting disabled, or the run-if predicate declining) the control runs
// directly and unobserved: no timing, no result, no publish.
func (e *Experiment[T]) Run(ctx context.Context) (T, error) {
	value, result, err := e.run(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if result != nil && result.Control.Failed() {
		var zero T
		return zero, result.Control.Resignal()
	}

	return value, nil
}

// RunResult executes the experiment and returns the control's value along
// with the evaluated Result. Unlike Run it does not re-signal a failure
// captured from the control; the failure stays on Result.Control. The
// Result is nil when the experiment was gated off and the control ran
// unobserved.
func (e *Experiment[T]) RunResult(ctx context.Context) (T, *Result[T], error) {
	return e.run(ctx)
}

func (e *Experiment[T]) run(ctx context.Context) (T, *Result[T], error) {
	var zero T

	control, hasControl := e.behaviors[controlName]
	if !hasControl {
		return zero, nil, fmt.Errorf("experiment %q: %w", e.name, ErrMissingControl)
	}

	shouldRun, _, err := guarded(ctx, e, OperationEnabled, e.shouldRun)
	if err != nil {
		return zero, nil, err
	}
	if !shouldRun {
		e.lggr.Debugw("Experiment gated off, running control unobserved", "experiment", e.name)
		value, err := control(ctx)

		return value, nil, err
	}

	if e.beforeRun != nil {
		if err := e.beforeRun(ctx); err != nil {
			return zero, nil, err
		}
	}

	names := make([]string, 0, len(e.behaviors))
	for name := range e.behaviors {
		names = append(names, name)
	}
	// A fresh permutation per run keeps systematic ordering effects, such
	// as cache warm-up, from biasing the comparison.
	rand.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})

	var controlObs *Observation[T]
	candidates := make([]*Observation[T], 0, len(names)-1)
	for _, name := range names {
		obs, err := e.observe(ctx, name, e.behaviors[name])
		if err != nil {
			return zero, nil, err
		}
		if name == controlName {
			controlObs = obs
		} else {
			candidates = append(candidates, obs)
		}
	}

	result, err := newResult(ctx, e, controlObs, candidates)
	if err != nil {
		return zero, nil, err
	}

	if _, _, err := guarded(ctx, e, OperationPublish, func(ctx context.Context) (any, error) {
		return nil, e.handler.Publish(ctx, result)
	}); err != nil {
		return zero, result, err
	}

	if e.errorOnMismatch && result.HasMismatches() {
		e.lggr.Warnw("Experiment observed mismatches",
			"experiment", e.name,
			"mismatched", len(result.Mismatched),
			"ignored", len(result.Ignored),
		)

		return zero, result, &MismatchError[T]{Result: result}
	}

	return result.Control.Value, result, nil
}

// shouldRun evaluates the run gate: at least one candidate besides the
// control, the handler reporting enabled, and the run-if predicate
// allowing the run. The gate short-circuits left to right.
func (e *Experiment[T]) shouldRun(ctx context.Context) (bool, error) {
	if len(e.behaviors) < 2 {
		return false, nil
	}
	enabled, err := e.handler.Enabled(ctx)
	if err != nil || !enabled {
		return false, err
	}

	return e.runIfAllows(ctx)
}

// runIfAllows evaluates the run-if predicate as its own guarded operation
// nested inside the enabled gate: an escalated failure reaches both the
// run_if and enabled hooks, a swallowed one merely gates this run off.
func (e *Experiment[T]) runIfAllows(ctx context.Context) (bool, error) {
	if e.runIf == nil {
		return true, nil
	}
	allowed, ok, err := guarded(ctx, e, OperationRunIf, e.runIf)
	if err != nil {
		return false, err
	}

	return ok && allowed, nil
}

// guarded invokes fn, routing a returned error to the handler's Raised
// hook and a panic to its Thrown hook. A non-nil error from either hook
// escalates and aborts the run; a nil return swallows the failure, making
// the operation yield the zero value with ok false.
func guarded[T, R any](ctx context.Context, e *Experiment[T], op Operation, fn func(context.Context) (R, error)) (out R, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			out, ok = zero, false
			err = e.handler.Thrown(ctx, e, op, r)
		}
	}()

	out, err = fn(ctx)
	if err != nil {
		var zero R
		return zero, false, e.handler.Raised(ctx, e, op, err)
	}

	return out, true, nil
}
