package config

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/nicia-ai/typegraph/kind"
)

// Watcher hot-reloads an ontology document on change and atomically swaps
// the *kind.Registry callers read from, mirroring the teacher's dev-mode
// reload posture (compiler/load) without requiring a process restart. A
// Registry is immutable once built (spec §5), so swapping the pointer is
// the entire story: readers that already hold an old *kind.Registry keep
// using it safely until their next Current() call.
type Watcher struct {
	path   string
	logger *slog.Logger

	current atomic.Pointer[kind.Registry]

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopOnce sync.Once
}

// WatchFile loads the ontology document at path, then starts watching it
// for writes and atomically swapping the served Registry on every valid
// change. The initial load must succeed; subsequent invalid documents are
// logged and skipped, leaving the last good Registry in place.
func WatchFile(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg, err := Load(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{path: path, logger: logger, watcher: fw, done: make(chan struct{})}
	w.current.Store(reg)

	go w.run()
	return w, nil
}

// Current returns the most recently, successfully loaded Registry.
func (w *Watcher) Current() *kind.Registry {
	return w.current.Load()
}

// Close stops watching and releases the underlying fsnotify.Watcher.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Editors frequently replace a file (write to a temp name, rename
			// over the original) rather than writing in place; watch for both.
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.reload()
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				// The inode behind our watch may be gone (rename-replace);
				// re-add so subsequent writes to the new file are still seen.
				_ = w.watcher.Add(w.path)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "path", w.path, "err", err)
		}
	}
}

func (w *Watcher) reload() {
	reg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config watcher: failed to reload, keeping previous registry", "path", w.path, "err", err)
		return
	}
	w.current.Store(reg)
	w.logger.Info("config watcher: ontology reloaded", "path", w.path)
}
