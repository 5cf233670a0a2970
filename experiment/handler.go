package experiment

import "context"

// Operation tags an engine-invoked callback whose failures are routed to a
// Handler's escalation hooks instead of crashing the run directly.
type Operation string

const (
	// OperationEnabled guards the whole run gate, including Handler.Enabled.
	OperationEnabled Operation = "enabled"
	// OperationRunIf guards the run-if predicate nested inside the run gate.
	OperationRunIf Operation = "run_if"
	// OperationCompare guards the comparator.
	OperationCompare Operation = "compare"
	// OperationClean guards the cleaner.
	OperationClean Operation = "clean"
	// OperationIgnore guards each ignore predicate.
	OperationIgnore Operation = "ignore"
	// OperationPublish guards Handler.Publish.
	OperationPublish Operation = "publish"
)

// Handler supplies an experiment's run policy: enablement, result
// publication, naming defaults, and what to do when a guarded operation
// fails. Implementations embed DefaultHandler and override what they need.
//
// A Handler shared by concurrent runs must be safe for concurrent use.
type Handler[T any] interface {
	// Enabled reports whether the experiment should run its candidates.
	// When it returns false, or fails and the failure is swallowed, the
	// control runs alone and unobserved.
	Enabled(ctx context.Context) (bool, error)

	// Publish receives the evaluated Result of every run that executed
	// candidates, whether or not they matched.
	Publish(ctx context.Context, result *Result[T]) error

	// DefaultName names experiments constructed with an empty name.
	DefaultName() string

	// DefaultContext seeds the context of experiments constructed from
	// this handler.
	DefaultContext() map[string]any

	// Raised is invoked when a guarded operation returns an error. The
	// returned error escalates and aborts the run; returning nil swallows
	// the failure and the operation yields its falsy fallback.
	Raised(ctx context.Context, exp *Experiment[T], op Operation, err error) error

	// Thrown is invoked when a guarded operation panics, with the
	// recovered payload. The returned error escalates and aborts the run;
	// returning nil swallows the failure. Thrown may also re-panic.
	Thrown(ctx context.Context, exp *Experiment[T], op Operation, v any) error
}

// DefaultHandler is the policy used by New: always enabled, publishing
// nowhere, and escalating every guarded failure, so the run fails exactly
// as it would have without the experiment harness. Embed it to implement
// Handler and override only what you need.
type DefaultHandler[T any] struct{}

var _ Handler[any] = DefaultHandler[any]{}

func (DefaultHandler[T]) Enabled(context.Context) (bool, error) { return true, nil }

func (DefaultHandler[T]) Publish(context.Context, *Result[T]) error { return nil }

func (DefaultHandler[T]) DefaultName() string { return "experiment" }

func (DefaultHandler[T]) DefaultContext() map[string]any { return nil }

// Raised re-signals the failure unchanged, keeping the error chain pointed
// at its origin.
func (DefaultHandler[T]) Raised(_ context.Context, _ *Experiment[T], _ Operation, err error) error {
	return err
}

// Thrown re-panics with the original payload.
func (DefaultHandler[T]) Thrown(_ context.Context, _ *Experiment[T], _ Operation, v any) error {
	panic(v)
}
