// Package reload hot-reloads the guard configuration file and rebuilds
// a fresh Guard on every change, rather than mutating one in place, so
// an in-flight Check never observes a half-applied config (spec.md §5's
// "no process-wide mutable state" rule, sdk/go/tripline's Config doc
// comment).
//
// Grounded on the teacher's internal/server/reload.go debounced
// fsnotify.Watcher, generalized from "reload one server's policy" to
// "swap an atomic pointer to a freshly built Guard".
package reload

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/corvid-labs/tripline/internal/config"
	"github.com/corvid-labs/tripline/sdk/go/tripline"
)

const debounce = 500 * time.Millisecond

// Watcher holds the currently active *tripline.Guard and swaps it for a
// freshly built one whenever the watched config file changes.
type Watcher struct {
	fsw   *fsnotify.Watcher
	path  string
	build func(tripline.Config) *tripline.Guard
	onErr func(error)
	guard atomic.Pointer[tripline.Guard]
}

// New loads path synchronously, builds the initial Guard via build, and
// (if path is non-empty) starts watching it for changes. onErr receives
// any error from a failed reload or from the underlying file watcher; it
// may be nil, in which case such errors are dropped (the previously
// loaded Guard stays active).
func New(path string, build func(tripline.Config) *tripline.Guard, onErr func(error)) (*Watcher, error) {
	if onErr == nil {
		onErr = func(error) {}
	}

	cfg, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reload: initial load: %w", err)
	}

	w := &Watcher{path: path, build: build, onErr: onErr}
	w.guard.Store(build(cfg))

	if path == "" {
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("reload: create watcher: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := fsw.Add(path); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("reload: watch %q: %w", path, err)
		}
	}
	w.fsw = fsw
	return w, nil
}

// Guard returns the currently active Guard. Safe to call concurrently
// with Run, including while a reload is in flight.
func (w *Watcher) Guard() *tripline.Guard {
	return w.guard.Load()
}

// Run watches the config file for writes/creates and swaps in a freshly
// built Guard after a 500ms debounce. Blocks until ctx is cancelled. If
// New was constructed with an empty path, Run just blocks on ctx.
func (w *Watcher) Run(ctx context.Context) error {
	if w.fsw == nil {
		<-ctx.Done()
		return nil
	}
	defer w.fsw.Close()

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, w.reload)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.onErr(fmt.Errorf("reload: watcher: %w", err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, _, err := config.Load(w.path)
	if err != nil {
		w.onErr(fmt.Errorf("reload: %w", err))
		return
	}
	w.guard.Store(w.build(cfg))
}
