package experiment

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/cwbriones/scientist/pkg/logger"
)

// controlName is the reserved behavior name of the control.
const controlName = "control"

// defaultCandidateName names candidates registered without a name.
const defaultCandidateName = "candidate"

// Behavior is a single code path under measurement. The engine maps its two
// native failure channels onto the failure taxonomy in Failure: a returned
// error is captured as a structured failure, a panic as an opaque one.
type Behavior[T any] func(ctx context.Context) (T, error)

// Comparator decides whether a candidate value is equivalent to the
// control's. A returned error routes through the handler's Raised hook.
type Comparator[T any] func(control, candidate T) (bool, error)

// Cleaner projects an observed value down to the subset worth comparing in
// reports, e.g. extracting IDs from a slice of rows.
type Cleaner[T any] func(value T) (any, error)

// IgnorePredicate declares a mismatch between the control and a candidate
// value irrelevant, e.g. a known remainder the rewrite fixes.
type IgnorePredicate[T any] func(control, candidate T) (bool, error)

// Experiment is an immutable experiment configuration and orchestrator. It
// holds the named behaviors, the hooks that shape evaluation, and the
// Handler consulted for policy. Build one with New or NewWithHandler and
// the With* methods, then execute it with Run or RunResult.
//
// Every builder method returns a new Experiment; the receiver is never
// mutated and can seed any number of derived experiments and runs.
type Experiment[T any] struct {
	name            string
	context         map[string]any
	behaviors       map[string]Behavior[T]
	comparator      Comparator[T]
	cleaner         Cleaner[T]
	ignores         []IgnorePredicate[T]
	runIf           func(ctx context.Context) (bool, error)
	beforeRun       func(ctx context.Context) error
	errorOnMismatch bool
	handler         Handler[T]
	lggr            logger.Logger
}

// New returns an experiment bound to DefaultHandler: always enabled,
// publishing nowhere, escalating every guarded failure.
func New[T any](name string) *Experiment[T] {
	return NewWithHandler[T](name, DefaultHandler[T]{})
}

// NewWithHandler returns an experiment bound to the given handler. An empty
// name falls back to the handler's DefaultName, and the experiment context
// is seeded from the handler's DefaultContext.
func NewWithHandler[T any](name string, h Handler[T]) *Experiment[T] {
	if name == "" {
		name = h.DefaultName()
	}

	return &Experiment[T]{
		name:       name,
		context:    maps.Clone(h.DefaultContext()),
		behaviors:  make(map[string]Behavior[T]),
		comparator: defaultComparator[T],
		handler:    h,
		lggr:       logger.Nop(),
	}
}

func defaultComparator[T any](control, candidate T) (bool, error) {
	return reflect.DeepEqual(control, candidate), nil
}

// AddControl registers the trusted behavior every candidate is compared
// against and whose outcome Run returns. It fails with
// ErrDuplicateBehavior if a control is already registered.
func (e *Experiment[T]) AddControl(fn Behavior[T]) (*Experiment[T], error) {
	return e.addBehavior(controlName, fn)
}

// AddCandidate registers a behavior to compare against the control. An
// empty name defaults to "candidate". It fails with ErrDuplicateBehavior
// if the name is taken; the name "control" is reserved for AddControl.
func (e *Experiment[T]) AddCandidate(name string, fn Behavior[T]) (*Experiment[T], error) {
	if name == "" {
		name = defaultCandidateName
	}
	if name == controlName {
		return nil, fmt.Errorf("experiment %q: name %q is reserved for the control: %w",
			e.name, name, ErrDuplicateBehavior)
	}

	return e.addBehavior(name, fn)
}

func (e *Experiment[T]) addBehavior(name string, fn Behavior[T]) (*Experiment[T], error) {
	if _, taken := e.behaviors[name]; taken {
		return nil, fmt.Errorf("experiment %q: behavior %q: %w", e.name, name, ErrDuplicateBehavior)
	}

	clone := e.clone()
	clone.behaviors[name] = fn

	return clone, nil
}

// WithComparator replaces the default structural-equality comparator.
func (e *Experiment[T]) WithComparator(compare Comparator[T]) *Experiment[T] {
	clone := e.clone()
	clone.comparator = compare

	return clone
}

// WithCleaner sets the cleaner applied to every successful observation
// before it is published. Without a cleaner the raw value is published.
func (e *Experiment[T]) WithCleaner(clean Cleaner[T]) *Experiment[T] {
	clone := e.clone()
	clone.cleaner = clean

	return clone
}

// WithIgnore appends an ignore predicate. Predicates are evaluated in the
// order they were added and the first to accept a mismatch wins.
func (e *Experiment[T]) WithIgnore(pred IgnorePredicate[T]) *Experiment[T] {
	clone := e.clone()
	clone.ignores = append(clone.ignores, pred)

	return clone
}

// WithRunIf gates candidate execution on the given predicate, evaluated on
// every run after the handler reports enabled. When it declines, the
// control runs alone and unobserved.
func (e *Experiment[T]) WithRunIf(fn func(ctx context.Context) (bool, error)) *Experiment[T] {
	clone := e.clone()
	clone.runIf = fn

	return clone
}

// WithBeforeRun registers a hook invoked after the run gate passes and
// before any behavior executes. It is not guarded: an error aborts the run
// with no behavior invoked and no result published.
func (e *Experiment[T]) WithBeforeRun(fn func(ctx context.Context) error) *Experiment[T] {
	clone := e.clone()
	clone.beforeRun = fn

	return clone
}

// WithErrorOnMismatch makes Run and RunResult fail with a MismatchError
// when any candidate mismatches the control without being ignored.
func (e *Experiment[T]) WithErrorOnMismatch(enabled bool) *Experiment[T] {
	clone := e.clone()
	clone.errorOnMismatch = enabled

	return clone
}

// WithContext merges the given entries into the experiment context, an
// opaque side channel carried through to the handler and its sinks.
// Existing keys are overwritten.
func (e *Experiment[T]) WithContext(kv map[string]any) *Experiment[T] {
	clone := e.clone()
	if clone.context == nil {
		clone.context = make(map[string]any, len(kv))
	}
	maps.Copy(clone.context, kv)

	return clone
}

// WithHandler replaces the experiment's handler.
func (e *Experiment[T]) WithHandler(h Handler[T]) *Experiment[T] {
	clone := e.clone()
	clone.handler = h

	return clone
}

// WithLogger replaces the experiment's logger. The default discards all
// output.
func (e *Experiment[T]) WithLogger(lggr logger.Logger) *Experiment[T] {
	clone := e.clone()
	clone.lggr = lggr

	return clone
}

// Name returns the experiment name.
func (e *Experiment[T]) Name() string { return e.name }

// Context returns a copy of the experiment context.
func (e *Experiment[T]) Context() map[string]any { return maps.Clone(e.context) }

// Handler returns the handler the experiment is bound to.
func (e *Experiment[T]) Handler() Handler[T] { return e.handler }

func (e *Experiment[T]) clone() *Experiment[T] {
	clone := *e
	clone.context = maps.Clone(e.context)
	clone.behaviors = maps.Clone(e.behaviors)
	clone.ignores = slices.Clone(e.ignores)

	return &clone
}
