package cmakedocs

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
)

// DefaultDebounce is how long the watcher lets changes settle before
// rebuilding the table.
const DefaultDebounce = 500 * time.Millisecond

// Watcher rebuilds the table when files under a local docs source change.
// A burst of edits is debounced into a single rebuild.
type Watcher struct {
	service  *Service
	root     string
	sections map[string]bool
	fsw      *fsnotify.Watcher
	debounce time.Duration

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewWatcher creates a watcher over the service's local source directory.
// It fails when the service syncs from git instead.
func NewWatcher(service *Service) (*Watcher, error) {
	settings := service.GetSettings()
	if settings.SourceDir == "" {
		return nil, fmt.Errorf("file watching requires a local docs source directory")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		service:  service,
		root:     ResolveDocsRoot(settings.SourceDir),
		sections: make(map[string]bool, len(settings.Sections)),
		fsw:      fsw,
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, section := range settings.Sections {
		w.sections[section] = true
	}

	if err := w.addWatches(); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// addWatches registers the docs root and every existing section directory.
func (w *Watcher) addWatches() error {
	if err := w.fsw.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	for section := range w.sections {
		dir := filepath.Join(w.root, section)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			slog.Warn("Failed to watch section directory", "dir", dir, "error", err)
		}
	}
	return nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start(ctx context.Context) {
	w.started = true
	go w.watch(ctx)
	slog.Info("Watching docs source for changes", "root", w.root, "debounce", w.debounce)
}

// Stop shuts the watcher down and waits for the event loop to exit.
// Stopping a watcher that was never started is safe.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.started {
			<-w.doneCh
		}
		if err := w.fsw.Close(); err != nil {
			slog.Error("Failed to close file watcher", "error", err)
		}
	})
}

// watch is the event loop with debouncing.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var timer *time.Timer
	rebuildCh := make(chan struct{}, 1)
	pending := 0

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.shouldProcess(event) {
				continue
			}

			// A section directory created after startup gets watched
			// immediately. The rebuild below also picks up any files
			// written before the watch was in place.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(event.Name); err != nil {
						slog.Warn("Failed to watch new section directory", "dir", event.Name, "error", err)
					}
				}
			}

			pending++
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case rebuildCh <- struct{}{}:
				default:
				}
			})

		case <-rebuildCh:
			slog.Info("Docs source changed, rebuilding table", "events", pending)
			pending = 0
			w.service.TryRefresh(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

// shouldProcess reports whether an event concerns the docs tree: a doc
// file inside a configured section, or a section directory itself.
func (w *Watcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch len(parts) {
	case 1:
		return w.sections[parts[0]]
	case 2:
		return w.sections[parts[0]] && w.service.filter.Matches(parts[1])
	default:
		return false
	}
}
