package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cwbriones/scientist/pkg/logger"
)

// defaultDebounce batches the burst of filesystem events an editor or
// atomic-rename write produces into a single reload.
const defaultDebounce = 100 * time.Millisecond

// Watcher reloads a settings file into a Store whenever it changes on disk.
// It watches the file's directory rather than the file itself, so atomic
// replace-by-rename writes are picked up too. A file that fails to parse is
// logged and skipped; the store keeps its previous settings.
type Watcher struct {
	path     string
	store    *Store
	lggr     logger.Logger
	onChange func(*Settings)
	debounce time.Duration

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithOnChange registers a callback invoked with the freshly loaded
// settings after each successful reload, from the watcher's goroutine.
func WithOnChange(fn func(*Settings)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithWatcherLogger sets the logger used to report reload failures. The
// default discards all output.
func WithWatcherLogger(lggr logger.Logger) WatcherOption {
	return func(w *Watcher) {
		w.lggr = lggr
	}
}

// WithDebounce overrides the window used to batch filesystem events into a
// single reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher starts watching the settings file at path, loading it into the
// store on every change until Close is called. The file is loaded once
// before NewWatcher returns, so the store is populated even if the file
// never changes again.
func NewWatcher(path string, store *Store, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     filepath.Clean(path),
		store:    store,
		lggr:     logger.Nop(),
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	settings, err := LoadFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file %s: %w", w.path, err)
	}
	store.Replace(settings)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()

		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fsw = fsw

	go w.loop()

	return w, nil
}

// Close stops the watcher. The store keeps the last loaded settings. Safe
// to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})

	return err
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}

			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.lggr.Errorw("Settings watcher error", "path", w.path, "err", err)
		}
	}
}

func (w *Watcher) reload() {
	settings, err := LoadFile(w.path)
	if err != nil {
		w.lggr.Errorw("Failed to reload settings, keeping previous", "path", w.path, "err", err)

		return
	}

	w.store.Replace(settings)
	w.lggr.Debugw("Settings reloaded", "path", w.path)

	if w.onChange != nil {
		w.onChange(settings)
	}
}
