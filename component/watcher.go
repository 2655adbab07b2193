package component

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the component directory watcher.
type WatcherConfig struct {
	// DebounceDelay is how long to wait for more changes before reloading
	DebounceDelay time.Duration

	// Logger for logging events
	Logger *slog.Logger
}

// Watcher watches a FileStore directory and keeps a Registry in sync
// with external edits. Component files changed on disk are reloaded;
// removed files are forgotten. Snapshot files under versions/ are
// immutable and ignored.
type Watcher struct {
	store    *FileStore
	registry *Registry
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation
}

// NewWatcher creates a watcher for the store's directory.
func NewWatcher(store *FileStore, registry *Registry, config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounce := config.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}

	return &Watcher{
		store:    store,
		registry: registry,
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// Start begins watching the component directory for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.store.Dir()); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Component watcher started",
		"dir", w.store.Dir(),
		"debounce", w.debounce)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent records a single fsnotify event for the next flush.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name
	base := filepath.Base(path)

	// Only component records matter; skip temp files from atomic writes
	// and anything that isn't a JSON file.
	if !strings.HasSuffix(base, ".json") || strings.HasPrefix(base, ".tmp-") {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Component file change detected",
		"file", base,
		"op", event.Op.String())
}

// flushPending applies accumulated changes to the registry.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}

	toProcess := make(map[string]fsnotify.Op)
	for k, v := range w.pending {
		toProcess[k] = v
	}
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		id := strings.TrimSuffix(filepath.Base(path), ".json")

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			// A rename during atomic write is followed by a create event
			// for the final name, so treating rename as removal is safe.
			if _, err := os.Stat(path); os.IsNotExist(err) {
				w.registry.forget(id)
				w.logger.Info("Component removed from disk", "id", id)
				continue
			}
		}

		if err := w.registry.reload(id); err != nil {
			w.logger.Warn("Failed to reload component",
				"id", id,
				"error", err)
			continue
		}
		w.logger.Info("Component reloaded from disk", "id", id)
	}
}
