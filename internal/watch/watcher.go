// Package watch re-runs an analysis when corpus files change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"kgcheck/pkg/logger"
)

// ChangeFunc is called with the sorted paths that changed during one
// debounce window. Calls never overlap.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher watches corpus directories for changes to matching files.
type Watcher struct {
	extension string
	debounce  time.Duration
	watcher   *fsnotify.Watcher
	dirs      []string
	logger    *zap.Logger
}

// New watches every existing directory in dirs. Missing directories are
// skipped with a warning; at least one must exist.
func New(dirs []string, extension string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		extension: extension,
		debounce:  debounce,
		watcher:   fw,
		logger:    logger.Get(),
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			w.logger.Warn("Skipping missing directory", zap.String("dir", dir))
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.dirs = append(w.dirs, dir)
	}
	if len(w.dirs) == 0 {
		fw.Close()
		return nil, fmt.Errorf("none of the directories to watch exist: %s", strings.Join(dirs, ", "))
	}
	return w, nil
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string { return w.dirs }

// Run delivers debounced change batches to onChange until ctx is done. It
// closes the watcher on return.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	defer w.watcher.Close()
	w.logger.Info("Watching for changes",
		zap.Strings("dirs", w.dirs),
		zap.Duration("debounce", w.debounce),
	)

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]bool)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			w.logger.Debug("Files changed", zap.Strings("files", changed))
			onChange(ctx, changed)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

// Close stops watching without waiting for Run.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !strings.HasSuffix(filepath.Base(event.Name), w.extension) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
