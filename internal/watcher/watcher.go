// Package watcher triggers a corpus reload when files in the knowledge-base
// directory change.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of events (editors often write several times).
const DefaultDebounce = 500 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	Dir string
	// Match filters file names; nil accepts every file.
	Match func(name string) bool
	// Reload is called once per debounced burst of relevant events.
	Reload   func(ctx context.Context) error
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher watches a single flat directory.
type Watcher struct {
	cfg     Config
	watcher *fsnotify.Watcher
}

// New starts watching cfg.Dir. Call Run to process events and Close when done.
func New(cfg Config) (*Watcher, error) {
	if cfg.Reload == nil {
		return nil, fmt.Errorf("watcher: reload callback is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(cfg.Dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", cfg.Dir, err)
	}
	return &Watcher{cfg: cfg, watcher: w}, nil
}

// Run processes events until ctx is cancelled or the watcher is closed.
// Reloads run on this goroutine, so they never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.cfg.Logger
	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			log.Debug("corpus change", "name", event.Name, "op", event.Op.String())
			timer.Reset(w.cfg.Debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("fsnotify error", "error", err)
		case <-timer.C:
			log.Info("reloading knowledge base", "dir", w.cfg.Dir)
			if err := w.cfg.Reload(ctx); err != nil {
				log.Error("reload failed", "error", err)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.cfg.Match == nil || w.cfg.Match(event.Name)
}
