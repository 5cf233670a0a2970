package experiment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DefaultHandler(t *testing.T) {
	t.Parallel()

	var h DefaultHandler[int]

	enabled, err := h.Enabled(t.Context())
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, h.Publish(t.Context(), &Result[int]{}))
	assert.Equal(t, "experiment", h.DefaultName())
	assert.Nil(t, h.DefaultContext())

	raised := errors.New("raised error")
	assert.ErrorIs(t, h.Raised(t.Context(), nil, OperationCompare, raised), raised)

	require.PanicsWithValue(t, "thrown payload", func() {
		_ = h.Thrown(t.Context(), nil, OperationPublish, "thrown payload")
	})
}

// hookCall records one escalation hook invocation observed by
// recordingHandler.
type hookCall struct {
	op  Operation
	err error
	v   any
}

// recordingHandler records every handler interaction. With swallow unset it
// keeps the default escalating policy; with swallow set the hooks absorb
// guarded failures after recording them.
type recordingHandler[T any] struct {
	DefaultHandler[T]

	swallow    bool
	enabledFn  func(ctx context.Context) (bool, error)
	publishErr error

	mu           sync.Mutex
	enabledCalls int
	published    []*Result[T]
	raised       []hookCall
	thrown       []hookCall
}

func (h *recordingHandler[T]) Enabled(ctx context.Context) (bool, error) {
	h.mu.Lock()
	h.enabledCalls++
	h.mu.Unlock()

	if h.enabledFn != nil {
		return h.enabledFn(ctx)
	}

	return true, nil
}

func (h *recordingHandler[T]) Publish(_ context.Context, result *Result[T]) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, result)

	return h.publishErr
}

func (h *recordingHandler[T]) Raised(_ context.Context, _ *Experiment[T], op Operation, err error) error {
	h.mu.Lock()
	h.raised = append(h.raised, hookCall{op: op, err: err})
	h.mu.Unlock()

	if h.swallow {
		return nil
	}

	return err
}

func (h *recordingHandler[T]) Thrown(_ context.Context, _ *Experiment[T], op Operation, v any) error {
	h.mu.Lock()
	h.thrown = append(h.thrown, hookCall{op: op, v: v})
	h.mu.Unlock()

	if h.swallow {
		return nil
	}
	panic(v)
}
