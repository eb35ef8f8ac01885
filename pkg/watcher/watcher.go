// Package watcher notifies callers when log files change so they can be
// parsed again.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultQuietPeriod is how long the watcher waits after the last event
// before reporting a batch of changes.
const DefaultQuietPeriod = 250 * time.Millisecond

// Event represents a change to one watched file.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors a fixed set of files. It watches their parent
// directories so a file that is rotated or recreated keeps being observed.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan Event

	paths []string
	files map[string]bool
}

// New creates a Watcher for the given files. Globs must already be expanded.
func New(paths []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 256),
		files:  make(map[string]bool),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			log.Warn().Err(err).Str("path", p).Msg("cannot resolve path")
			continue
		}
		if w.files[abs] {
			continue
		}

		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := fsw.Add(dir); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("cannot watch directory")
				continue
			}
			dirs[dir] = true
		}
		w.files[abs] = true
		w.paths = append(w.paths, abs)
	}

	if len(w.paths) == 0 {
		fsw.Close()
		return nil, fmt.Errorf("no watchable files in %v", paths)
	}
	return w, nil
}

// Paths returns the absolute paths being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}

// Start forwards changes to watched files on Events. It blocks until the
// context is cancelled, then closes Events.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.Events <- Event{Path: ev.Name, Op: ev.Op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// Run starts the watcher and calls fn with the sorted set of changed paths
// once no event has arrived for quiet. It blocks until the context is
// cancelled. A non-positive quiet uses DefaultQuietPeriod.
func (w *Watcher) Run(ctx context.Context, quiet time.Duration, fn func(changed []string)) {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	go w.Start(ctx)

	pending := make(map[string]bool)
	var flush <-chan time.Time

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			log.Debug().Str("path", ev.Path).Str("op", ev.Op.String()).Msg("file changed")
			pending[ev.Path] = true
			flush = time.After(quiet)
		case <-flush:
			flush = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)
			fn(changed)
		}
	}
}
