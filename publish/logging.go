package publish

import (
	"context"

	"github.com/cwbriones/scientist/experiment"
	"github.com/cwbriones/scientist/pkg/logger"
)

// Logging writes published results and guarded failures to a Logger.
//
// Unlike the default policy it swallows guarded failures after logging
// them, so a broken comparator, cleaner, or ignore predicate degrades the
// experiment instead of taking down the caller. Behavior failures are not
// affected; they are captured in observations as always.
type Logging[T any] struct {
	experiment.DefaultHandler[T]

	lggr logger.Logger
}

// NewLogging creates a sink that publishes to lggr.
func NewLogging[T any](lggr logger.Logger) *Logging[T] {
	return &Logging[T]{lggr: lggr}
}

// Publish logs the result: matched runs at info, runs with mismatches at
// warn.
func (l *Logging[T]) Publish(_ context.Context, result *experiment.Result[T]) error {
	fields := []any{
		"experiment", result.Experiment.Name(),
		"result_id", result.ID,
		"candidates", len(result.Candidates),
		"mismatched", len(result.Mismatched),
		"ignored", len(result.Ignored),
	}
	if result.HasMismatches() {
		l.lggr.Warnw("Experiment result had mismatches", fields...)
	} else {
		l.lggr.Infow("Experiment result published", fields...)
	}

	return nil
}

// Raised logs the guarded failure and swallows it.
func (l *Logging[T]) Raised(_ context.Context, exp *experiment.Experiment[T], op experiment.Operation, err error) error {
	l.lggr.Errorw("Guarded operation failed",
		"experiment", exp.Name(), "operation", op, "error", err)

	return nil
}

// Thrown logs the guarded panic and swallows it.
func (l *Logging[T]) Thrown(_ context.Context, exp *experiment.Experiment[T], op experiment.Operation, v any) error {
	l.lggr.Errorw("Guarded operation panicked",
		"experiment", exp.Name(), "operation", op, "panic", v)

	return nil
}
