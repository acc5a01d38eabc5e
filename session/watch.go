package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDelay groups bursts of file events into a single reload
const DefaultWatchDelay = 50 * time.Millisecond

// Watcher reloads a Store when its session file is changed by another process
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	file    string
	delay   time.Duration
}

// NewWatcher starts watching the directory holding path. The directory is
// watched rather than the file because writes replace it via rename.
func (s *Store) NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	clean := filepath.Clean(path)
	if err := fw.Add(filepath.Dir(clean)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(clean), err)
	}

	return &Watcher{
		store:   s,
		watcher: fw,
		file:    clean,
		delay:   DefaultWatchDelay,
	}, nil
}

// Run processes events until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.store.Reload(ctx); err != nil {
				w.store.logger.Warn().Err(err).Str("path", w.file).Msg("Failed to reload session")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.store.logger.Warn().Err(err).Str("path", w.file).Msg("Session watcher error")
		}
	}
}

// Watch reloads the store whenever path changes, until ctx is done
func (s *Store) Watch(ctx context.Context, path string) error {
	w, err := s.NewWatcher(path)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
