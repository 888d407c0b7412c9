// Package watcher re-runs a callback whenever a document file changes
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the bursts of events editors and atomic renames produce
const DefaultDebounce = 100 * time.Millisecond

// Option configures Watch
type Option func(*options)

type options struct {
	logger   *slog.Logger
	debounce time.Duration
}

// WithLogger sets the logger for watcher and callback errors
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDebounce sets the quiet period before the callback runs. Zero disables debouncing.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// Watch calls onChange once immediately, then again whenever path is
// written, created or renamed into place. It blocks until ctx is done.
// Callback errors are logged and do not stop the watcher.
func Watch(ctx context.Context, path string, onChange func(context.Context) error, opts ...Option) error {
	o := options{logger: slog.New(slog.DiscardHandler), debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	logger := o.logger.With("file", abs)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	// The directory is watched so atomic replacements keep being seen
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	if err := onChange(ctx); err != nil {
		logger.Warn("change handler failed", "error", err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			logger.Debug("file changed", "op", event.Op.String())

			if o.debounce <= 0 {
				if err := onChange(ctx); err != nil {
					logger.Warn("change handler failed", "error", err)
				}
				continue
			}
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := onChange(ctx); err != nil {
				logger.Warn("change handler failed", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}
