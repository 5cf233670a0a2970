package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cwbriones/scientist/experiment"
)

// ErrResultNotFound is returned when a result ID is not present in a sink.
var ErrResultNotFound = errors.New("result not found")

// Memory retains published results in memory.
// This is thread-safe and can be used in a multi-threaded environment.
type Memory[T any] struct {
	experiment.DefaultHandler[T]

	results []*experiment.Result[T]
	mu      sync.RWMutex
}

// MemoryOption configures a Memory sink.
type MemoryOption[T any] func(*Memory[T])

// WithResults is an option to initialize the Memory sink with a list of
// results.
func WithResults[T any](results []*experiment.Result[T]) MemoryOption[T] {
	return func(m *Memory[T]) {
		m.results = results
	}
}

// NewMemory creates a new Memory sink.
// It can be initialized with a list of results using the WithResults option.
func NewMemory[T any](options ...MemoryOption[T]) *Memory[T] {
	sink := &Memory[T]{}
	for _, opt := range options {
		opt(sink)
	}

	return sink
}

// Publish appends the result to the sink.
func (m *Memory[T]) Publish(_ context.Context, result *experiment.Result[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results = append(m.results, result)

	return nil
}

// Results returns all published results in publication order.
func (m *Memory[T]) Results() []*experiment.Result[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Create a copy to avoid data races after returning
	results := make([]*experiment.Result[T], len(m.results))
	copy(results, m.results)

	return results
}

// Result returns a published result by ID.
// Returns ErrResultNotFound if the result is not found.
func (m *Memory[T]) Result(id string) (*experiment.Result[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, result := range m.results {
		if result.ID == id {
			return result, nil
		}
	}

	return nil, fmt.Errorf("result_id %s: %w", id, ErrResultNotFound)
}
