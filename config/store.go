package config

import "sync/atomic"

// Store holds the live Settings behind an atomic pointer, so a Watcher or
// any other reloader can swap the whole configuration without readers
// taking a lock. Safe for concurrent use; the Settings value itself must be
// treated as read-only once stored.
type Store struct {
	settings atomic.Pointer[Settings]
}

// NewStore creates a store seeded with the given settings. A nil settings
// value seeds the store with empty settings, which resolve every experiment
// to enabled at full rollout.
func NewStore(settings *Settings) *Store {
	s := &Store{}
	s.Replace(settings)

	return s
}

// Load returns the current settings. The returned value is never nil.
func (s *Store) Load() *Settings {
	return s.settings.Load()
}

// Replace swaps in the given settings for all subsequent Load calls. A nil
// value resets the store to empty settings.
func (s *Store) Replace(settings *Settings) {
	if settings == nil {
		settings = &Settings{}
	}
	s.settings.Store(settings)
}
