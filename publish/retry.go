package publish

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/cwbriones/scientist/experiment"
	"github.com/cwbriones/scientist/pkg/logger"
)

const (
	defaultAttempts uint = 3
	defaultDelay         = 100 * time.Millisecond
)

// Retry decorates a handler with bounded publish retries. Only Publish is
// retried; enablement, naming, and escalation policy pass through to the
// wrapped handler untouched. When every attempt fails, the last error is
// escalated as usual.
type Retry[T any] struct {
	next     experiment.Handler[T]
	attempts uint
	delay    time.Duration
	lggr     logger.Logger
}

// RetryOption configures a Retry decorator.
type RetryOption[T any] func(*Retry[T])

// WithAttempts sets the total number of publish attempts, including the
// first.
func WithAttempts[T any](n uint) RetryOption[T] {
	return func(r *Retry[T]) {
		r.attempts = n
	}
}

// WithDelay sets the base delay between attempts.
func WithDelay[T any](d time.Duration) RetryOption[T] {
	return func(r *Retry[T]) {
		r.delay = d
	}
}

// WithRetryLogger sets the logger used to report retried attempts.
func WithRetryLogger[T any](lggr logger.Logger) RetryOption[T] {
	return func(r *Retry[T]) {
		r.lggr = lggr
	}
}

// NewRetry wraps next with publish retries.
func NewRetry[T any](next experiment.Handler[T], opts ...RetryOption[T]) *Retry[T] {
	r := &Retry[T]{
		next:     next,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		lggr:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewUnrecoverableError creates an error that indicates an unrecoverable
// error. If this error is returned by the wrapped handler's Publish, the
// publish will no longer retry and fails fast.
func NewUnrecoverableError(err error) error {
	return retry.Unrecoverable(err)
}

// Publish delegates to the wrapped handler, retrying failed attempts until
// the attempt budget or the context runs out.
func (r *Retry[T]) Publish(ctx context.Context, result *experiment.Result[T]) error {
	return retry.Do(
		func() error {
			return r.next.Publish(ctx, result)
		},
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			r.lggr.Infow("Publish failed. Retrying...",
				"experiment", result.Experiment.Name(), "attempt", attempt, "error", err)
		}),
	)
}

func (r *Retry[T]) Enabled(ctx context.Context) (bool, error) {
	return r.next.Enabled(ctx)
}

func (r *Retry[T]) DefaultName() string {
	return r.next.DefaultName()
}

func (r *Retry[T]) DefaultContext() map[string]any {
	return r.next.DefaultContext()
}

func (r *Retry[T]) Raised(ctx context.Context, exp *experiment.Experiment[T], op experiment.Operation, err error) error {
	return r.next.Raised(ctx, exp, op, err)
}

func (r *Retry[T]) Thrown(ctx context.Context, exp *experiment.Experiment[T], op experiment.Operation, v any) error {
	return r.next.Thrown(ctx, exp, op, v)
}
