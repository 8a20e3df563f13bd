// Package watcher monitors a drop directory for source files and hands them
// to the ingestion pipeline. Writes are debounced so a file still being
// copied in is picked up once, after it settles.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// DropWatcher watches one directory and invokes a callback for each new or
// modified file. Removals are ignored: documents are superseded, never
// deleted, so a file vanishing from the drop directory has no effect.
type DropWatcher struct {
	root       string
	extensions []string
	onFile     func(path string)
	debounce   time.Duration
	logger     *zap.Logger

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
}

// Option configures a DropWatcher.
type Option func(*DropWatcher)

// WithDebounce overrides the settle delay before a written file is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *DropWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *DropWatcher) { w.logger = l }
}

// NewDropWatcher creates a watcher on root. onFile is called with the path of
// each settled file whose extension matches (empty extensions = all files).
func NewDropWatcher(root string, extensions []string, onFile func(path string), opts ...Option) *DropWatcher {
	w := &DropWatcher{
		root:        root,
		extensions:  extensions,
		onFile:      onFile,
		debounce:    defaultDebounce,
		logger:      zap.NewNop(),
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The drop directory is created if missing. The
// watcher runs until ctx is cancelled or Stop is called.
func (w *DropWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		w.mu.Unlock()
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.root); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	w.logger.Debug("drop watcher started",
		zap.String("root", w.root),
		zap.Strings("extensions", w.extensions))
	go w.run(ctx)
	return nil
}

func (w *DropWatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("drop watcher error", zap.Error(err))
			}
		}
	}
}

func (w *DropWatcher) handleEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil || info.IsDir() {
		return
	}
	if !w.matchExtension(ev.Name) {
		return
	}
	w.logger.Debug("drop watcher event",
		zap.String("op", ev.Op.String()),
		zap.String("path", ev.Name))
	w.debounceFile(ev.Name)
}

func (w *DropWatcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range w.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *DropWatcher) debounceFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		if w.onFile != nil {
			w.onFile(path)
		}
	})
}

// SyncExisting reports every matching file already present in the drop
// directory. Call after Start to pick up files dropped while the watcher was
// down.
func (w *DropWatcher) SyncExisting() {
	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if w.matchExtension(path) && w.onFile != nil {
			w.onFile(path)
		}
		return nil
	})
}

// Stop stops the watcher and cancels pending debounce timers.
func (w *DropWatcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
