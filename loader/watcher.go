package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Watcher polls a drop directory and emits files that have stopped changing.
// A file is announced only after it has sat untouched for the settle window,
// so half-copied uploads are never picked up.
type Watcher struct {
	dir      string
	interval time.Duration
	settle   time.Duration
	logger   *slog.Logger

	mu         sync.Mutex
	firstSeen  map[string]time.Time
	processing map[string]bool
}

func NewWatcher(dir string, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = 3 * time.Second
	}
	return &Watcher{
		dir:        dir,
		interval:   time.Second,
		settle:     settle,
		logger:     slog.Default(),
		firstSeen:  make(map[string]time.Time),
		processing: make(map[string]bool),
	}
}

// Watch announces settled files on fileChan until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, fileChan chan<- string) {
	w.logger.Info("[LOADER] start monitoring folder", "dir", w.dir)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("[LOADER] file watcher stopped")
			return
		case <-ticker.C:
			w.scan(ctx, fileChan)
		}
	}
}

func (w *Watcher) scan(ctx context.Context, fileChan chan<- string) {
	files, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error("[LOADER] read source directory", "error", err)
		return
	}

	current := make(map[string]bool, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		path := filepath.Join(w.dir, file.Name())
		current[path] = true

		w.mu.Lock()
		if w.processing[path] {
			w.mu.Unlock()
			continue
		}
		seen, exists := w.firstSeen[path]
		if !exists {
			w.firstSeen[path] = time.Now()
			w.mu.Unlock()
			w.logger.Info("[LOADER] new file detected", "path", path)
			continue
		}
		if time.Since(seen) < w.settle {
			w.mu.Unlock()
			continue
		}
		w.processing[path] = true
		w.mu.Unlock()

		select {
		case fileChan <- path:
		case <-ctx.Done():
			return
		}
	}

	// Forget files that disappeared so a re-drop starts a fresh settle
	// window.
	w.mu.Lock()
	for path := range w.firstSeen {
		if !current[path] {
			delete(w.firstSeen, path)
			delete(w.processing, path)
		}
	}
	w.mu.Unlock()
}

// MoveToArchive relocates a handled file under archive/ or failed/ next to
// the drop directory.
func (w *Watcher) MoveToArchive(path string, failed bool) error {
	sub := "archive"
	if failed {
		sub = "failed"
	}

	dir := filepath.Join(w.dir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	target := filepath.Join(dir, fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), filepath.Base(path)))
	return os.Rename(path, target)
}
