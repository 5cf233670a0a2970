// Package exptest provides utilities for experiment testing.
package exptest

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/cwbriones/scientist/experiment"
	"github.com/cwbriones/scientist/pkg/logger"
)

// New creates an experiment for testing, bound to a test logger and a fresh
// Recorder.
func New[T any](t *testing.T, name string) (*experiment.Experiment[T], *Recorder[T]) {
	t.Helper()

	rec := &Recorder[T]{}

	return experiment.NewWithHandler[T](name, rec).WithLogger(logger.Test(t)), rec
}

// HookCall records one invocation of an escalation hook.
type HookCall struct {
	Experiment string
	Op         experiment.Operation
	// Err is the failure passed to Raised.
	Err error
	// Panic is the payload passed to Thrown.
	Panic any
}

// Recorder is a Handler spy: it records every published result and every
// escalation hook invocation. By default it keeps the escalating policy of
// experiment.DefaultHandler; set Swallow to absorb guarded failures
// instead. Safe for concurrent use.
type Recorder[T any] struct {
	experiment.DefaultHandler[T]

	// Swallow makes Raised and Thrown absorb failures after recording
	// them, instead of re-signaling.
	Swallow bool
	// PublishErr, when set, is returned by Publish after recording the
	// result.
	PublishErr error

	mu      sync.Mutex
	results []*experiment.Result[T]
	raised  []HookCall
	thrown  []HookCall
}

func (r *Recorder[T]) Publish(_ context.Context, result *experiment.Result[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)

	return r.PublishErr
}

func (r *Recorder[T]) Raised(_ context.Context, exp *experiment.Experiment[T], op experiment.Operation, err error) error {
	r.mu.Lock()
	r.raised = append(r.raised, HookCall{Experiment: exp.Name(), Op: op, Err: err})
	r.mu.Unlock()

	if r.Swallow {
		return nil
	}

	return err
}

func (r *Recorder[T]) Thrown(_ context.Context, exp *experiment.Experiment[T], op experiment.Operation, v any) error {
	r.mu.Lock()
	r.thrown = append(r.thrown, HookCall{Experiment: exp.Name(), Op: op, Panic: v})
	r.mu.Unlock()

	if r.Swallow {
		return nil
	}
	panic(v)
}

// Results returns a copy of the published results in publication order.
func (r *Recorder[T]) Results() []*experiment.Result[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.results)
}

// RaisedCalls returns a copy of the recorded Raised invocations.
func (r *Recorder[T]) RaisedCalls() []HookCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.raised)
}

// ThrownCalls returns a copy of the recorded Thrown invocations.
func (r *Recorder[T]) ThrownCalls() []HookCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.thrown)
}
