// Package watch reports bursts of file changes inside a container folder.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/compstash/internal/ctxlog"
)

// DefaultDebounce is the quiet period that ends a burst.
const DefaultDebounce = 300 * time.Millisecond

const gitDir = ".git"

// Watcher watches a folder tree, .git excluded.
type Watcher struct {
	root     string
	debounce time.Duration
	fs       *fsnotify.Watcher
}

// New starts watching folder and every directory beneath it.
func New(folder string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{root: filepath.Clean(folder), debounce: debounce, fs: fw}
	if err := w.addTree(w.root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == gitDir && path != w.root {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == gitDir {
			return true
		}
	}
	return false
}

// Run delivers each burst of changed paths to fn, sorted, until ctx is
// cancelled. fn runs on the caller's goroutine. The watcher is closed when
// Run returns.
func (w *Watcher) Run(ctx context.Context, fn func(changed []string)) error {
	logger := ctxlog.FromContext(ctx).With("folder", w.root)
	defer w.fs.Close()

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Stopping watcher.")
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						logger.Warn("Failed to watch new directory.", "path", event.Name, "error", err)
					}
				}
			}
			logger.Debug("File changed.", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Error("File watcher error.", "error", err)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]struct{})
			fn(changed)
		}
	}
}

// Container watches folder until ctx is cancelled, calling fn once per
// burst of changes.
func Container(ctx context.Context, folder string, debounce time.Duration, fn func(changed []string)) error {
	w, err := New(folder, debounce)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}
