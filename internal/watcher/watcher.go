// Package watcher reports, debounced, when report files in the output
// directory are replaced.
package watcher

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the create/rename burst of an atomic write into a
// single notification.
const debounceDelay = 150 * time.Millisecond

// Watcher watches a directory for changes to a fixed set of file names.
type Watcher struct {
	fsw      *fsnotify.Watcher
	names    []string
	delay    time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
}

// New watches dir and invokes callback (debounced) whenever one of names is
// created, written, renamed or removed. An empty names list matches every file.
func New(dir string, names []string, callback func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watching the directory rather than the files survives rename-into-place.
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{fsw: fsw, names: names, delay: debounceDelay, callback: callback}, nil
}

// Run starts the watch loop. It blocks until the context is canceled.
// Errors from the underlying watcher are passed to the optional errFn callback.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.debounce()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return len(w.names) == 0 || slices.Contains(w.names, filepath.Base(event.Name))
}

func (w *Watcher) debounce() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.callback)
}
