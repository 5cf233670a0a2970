package config

import (
	"context"
	"math/rand/v2"

	"github.com/cwbriones/scientist/experiment"
)

// Handler gates an experiment on the live settings in a Store: the kill
// switch decides whether the experiment may run at all, and the rollout
// percentage decides what fraction of runs execute candidates. Escalation
// keeps the default fatal policy. Pair it with a Watcher to flip
// experiments on and off without a restart.
type Handler[T any] struct {
	experiment.DefaultHandler[T]

	store *Store
	name  string
	roll  func() int
}

// HandlerOption configures a Handler.
type HandlerOption[T any] func(*Handler[T])

// WithRoll overrides the rollout die, a function returning a value in
// [0, 100). A run executes candidates when the roll is below the configured
// percentage. Intended for tests.
func WithRoll[T any](fn func() int) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.roll = fn
	}
}

// NewHandler creates a handler resolving the named experiment's policy
// against the store's live settings.
func NewHandler[T any](store *Store, name string, opts ...HandlerOption[T]) *Handler[T] {
	h := &Handler[T]{
		store: store,
		name:  name,
		roll:  func() int { return rand.IntN(100) },
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Enabled consults the live settings: false when the kill switch is off,
// otherwise a fresh roll against the rollout percentage. Percent 100 always
// runs, percent 0 never does.
func (h *Handler[T]) Enabled(context.Context) (bool, error) {
	settings := h.store.Load()
	if !settings.EnabledFor(h.name) {
		return false, nil
	}

	pct := settings.PercentFor(h.name)
	switch pct {
	case 100:
		return true, nil
	case 0:
		return false, nil
	}

	return h.roll() < pct, nil
}

// DefaultName returns the experiment name the handler was built for.
func (h *Handler[T]) DefaultName() string { return h.name }

// DefaultContext returns the merged global and per-experiment context from
// the live settings.
func (h *Handler[T]) DefaultContext() map[string]any {
	return h.store.Load().ContextFor(h.name)
}
