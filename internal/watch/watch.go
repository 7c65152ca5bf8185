// Package watch evaluates submission files as they appear in inbox directories.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pubcheck/internal/submission"
)

const DefaultDebounce = 250 * time.Millisecond

// Handler is called once per settled submission file.
type Handler func(ctx context.Context, path string) error

type Config struct {
	// Dirs are watched recursively. Directories created later are picked up too.
	Dirs []string
	// Debounce is the quiet period after the last write before a file is handled.
	Debounce time.Duration
}

// Watcher turns filesystem events into Handler calls. Handlers run one at a time.
type Watcher struct {
	fs     *fsnotify.Watcher
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

func New(cfg Config) (*Watcher, error) {
	if len(cfg.Dirs) == 0 {
		return nil, fmt.Errorf("watch: at least one directory is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fs:      fsw,
		cfg:     cfg,
		logger:  slog.Default().With("component", "watch"),
		pending: make(map[string]*time.Timer),
		ready:   make(chan string),
		done:    make(chan struct{}),
	}, nil
}

// Watch blocks until ctx is cancelled, calling handle for every submission file
// created or rewritten under the configured directories. Handler errors are logged
// and do not stop the watcher.
func (w *Watcher) Watch(ctx context.Context, handle Handler) error {
	defer w.shutdown()

	for _, dir := range w.cfg.Dirs {
		if err := w.addTree(dir); err != nil {
			return err
		}
	}
	w.logger.Info("watching for submissions", "dirs", w.cfg.Dirs, "debounce", w.cfg.Debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-w.ready:
			if err := handle(ctx, path); err != nil {
				w.logger.Error("failed to handle submission file", "path", path, "error", err)
			}

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if isHidden(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if !submission.IsSubmissionFile(event.Name) {
		return
	}
	w.logger.Debug("submission file event", "path", event.Name, "op", event.Op.String())
	w.schedule(event.Name)
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

func (w *Watcher) shutdown() {
	close(w.done)

	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if err := w.fs.Close(); err != nil {
		w.logger.Warn("failed to close watcher", "error", err)
	}
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
