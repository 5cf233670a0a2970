package experiment

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"time"
)

// Failure captures one behavior failure, tagged by the channel it
// propagated on. Exactly one channel is set: Err for a returned error,
// Panic for a recovered panic payload.
type Failure struct {
	// Err is the error the behavior returned.
	Err error
	// Panic is the payload recovered from a panicking behavior.
	Panic any
	// Stack is the stack captured at the recovery point of a panicking
	// behavior. It is reporting metadata only and never participates in
	// failure equality.
	Stack []byte
}

// IsPanic reports whether the failure propagated as a panic.
func (f *Failure) IsPanic() bool { return f.Err == nil }

// Equal reports whether two failures are equivalent: same channel, equal
// payload. Errors are equal when they share a dynamic type and message;
// panic payloads are compared structurally. Stacks are ignored.
func (f *Failure) Equal(other *Failure) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.IsPanic() != other.IsPanic() {
		return false
	}
	if f.IsPanic() {
		return reflect.DeepEqual(f.Panic, other.Panic)
	}

	return reflect.TypeOf(f.Err) == reflect.TypeOf(other.Err) && f.Err.Error() == other.Err.Error()
}

func (f *Failure) String() string {
	if f.IsPanic() {
		return fmt.Sprintf("panic: %v", f.Panic)
	}

	return f.Err.Error()
}

// Observation captures a single execution of one named behavior. It is
// created once per behavior per run and immutable afterwards.
type Observation[T any] struct {
	// Name is the behavior name, "control" for the control.
	Name string
	// StartedAt is when the behavior was invoked.
	StartedAt time.Time
	// Duration is the wall-clock time the behavior took to return its
	// value. It is zero when the behavior failed.
	Duration time.Duration
	// Value is the raw value the behavior returned. It is the zero value
	// when the behavior failed.
	Value T
	// CleanedValue is Value projected through the experiment's cleaner,
	// or Value unchanged when no cleaner is configured. It is nil when
	// the behavior failed or a cleaner failure was swallowed.
	CleanedValue any
	// Failure is set when the behavior returned an error or panicked.
	Failure *Failure

	experiment *Experiment[T]
}

// Experiment returns the experiment this observation belongs to.
func (o *Observation[T]) Experiment() *Experiment[T] { return o.experiment }

// Failed reports whether the behavior failed instead of producing a value.
func (o *Observation[T]) Failed() bool { return o.Failure != nil }

// Resignal re-signals a captured failure on its original channel: a panic
// payload is re-panicked, an error is returned unchanged so the chain
// still points at its origin. It returns nil when the behavior succeeded.
func (o *Observation[T]) Resignal() error {
	if o.Failure == nil {
		return nil
	}
	if o.Failure.IsPanic() {
		panic(o.Failure.Panic)
	}

	return o.Failure.Err
}

// observe runs one behavior and captures its outcome. The returned error
// is an escalated cleaner failure and aborts the run.
func (e *Experiment[T]) observe(ctx context.Context, name string, fn Behavior[T]) (*Observation[T], error) {
	obs := &Observation[T]{
		Name:       name,
		StartedAt:  time.Now(),
		experiment: e,
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				obs.Failure = &Failure{Panic: r, Stack: debug.Stack()}
			}
		}()

		value, err := fn(ctx)
		if err != nil {
			obs.Failure = &Failure{Err: err}
			return
		}
		obs.Value = value
		obs.Duration = time.Since(obs.StartedAt)
	}()

	if obs.Failed() {
		return obs, nil
	}

	if e.cleaner == nil {
		obs.CleanedValue = obs.Value
		return obs, nil
	}
	cleaned, ok, err := guarded(ctx, e, OperationClean, func(context.Context) (any, error) {
		return e.cleaner(obs.Value)
	})
	if err != nil {
		return nil, err
	}
	if ok {
		obs.CleanedValue = cleaned
	}

	return obs, nil
}

// equivalent reports whether two observations are equivalent: both failed
// the same way, or neither failed and the comparator accepts their values.
// An observation that failed is never equivalent to one that succeeded,
// and failure equality never consults the comparator.
func equivalent[T any](control, candidate *Observation[T], compare Comparator[T]) (bool, error) {
	switch {
	case control.Failed() && candidate.Failed():
		return control.Failure.Equal(candidate.Failure), nil
	case control.Failed() || candidate.Failed():
		return false, nil
	default:
		return compare(control.Value, candidate.Value)
	}
}
