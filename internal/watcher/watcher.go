package watcher

// Package watcher provides a recursive, debounced file system watcher for the
// drop directory. It coalesces the create/write event bursts that large image
// copies produce and fires the callback once per settled file. Newly created
// subdirectories are added to the watch list automatically.

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher handles the file system events using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onFile    func(string)
	logger    *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewWatcher creates and starts a recursive watcher on root. onFile is called
// once per file after its events have been quiet for the debounce duration.
func NewWatcher(root string, debounce time.Duration, onFile func(string), logger *slog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fs,
		debounce:  debounce,
		onFile:    onFile,
		logger:    logger,
		timers:    make(map[string]*time.Timer),
	}

	go w.loop()

	if err := w.AddRecursive(root); err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}

			if info.IsDir() {
				if event.Has(fsnotify.Create) {
					if err := w.AddRecursive(event.Name); err != nil {
						w.logger.Warn("Watcher: failed to watch new directory", "path", event.Name, "error", err)
					}
				}
				continue
			}

			w.schedule(event.Name)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher: fsnotify error", "error", err)
		}
	}
}

// schedule (re)starts the debounce timer for a file; the callback fires when
// the file has been quiet for the configured duration.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.onFile(path)
	})
}

// AddRecursive adds the given path and all its sub-directories to the watcher.
func (w *Watcher) AddRecursive(path string) error {
	return filepath.Walk(path, func(newPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			w.logger.Debug("Watcher: watching", "path", newPath)
			return w.fsWatcher.Add(newPath)
		}
		return nil
	})
}

// Close shuts down the watcher and cancels pending debounce timers.
func (w *Watcher) Close() {
	w.mu.Lock()
	w.closed = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.fsWatcher.Close()
}
