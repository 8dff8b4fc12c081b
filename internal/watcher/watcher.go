// Package watcher watches the corpus directory and triggers debounced
// rebuilds when documents change.
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

const defaultDebounce = 2 * time.Second

// Watcher watches a corpus root and invokes a rebuild callback after file
// changes settle. Index builds are exclusive per output location, so events
// arriving during a pending debounce window collapse into one rebuild.
type Watcher struct {
	root       string
	extensions []string
	onRebuild  func()
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	timer      *time.Timer
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug event output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the rebuild debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over root. extensions filters which files trigger a
// rebuild (empty = all). onRebuild is invoked from the watcher goroutine.
func New(root string, extensions []string, onRebuild func(), opts ...Option) *Watcher {
	w := &Watcher{
		root:       root,
		extensions: extensions,
		onRebuild:  onRebuild,
		debounce:   defaultDebounce,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching root and all its subdirectories. It runs until ctx
// is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw
	if err := w.addRecursive(w.root); err != nil {
		_ = fw.Close()
		return err
	}
	if w.logger != nil {
		w.logger.Debug("watcher started", zap.String("root", w.root), zap.Strings("extensions", w.extensions))
	}
	go w.run(ctx)
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
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
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create):
		// New subdirectories need their own watch before their files
		// produce events.
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(ev.Name)
			w.schedule()
			return
		}
	case ev.Op.Has(fsnotify.Write), ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
	default:
		return
	}
	if !w.matches(ev.Name) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("corpus change", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	}
	w.schedule()
}

func (w *Watcher) matches(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.onRebuild()
	})
}

// Stop stops the watcher and cancels any pending rebuild.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}
