package filesystem

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports which bundle changed whenever a file under the problems
// tree is created, written, removed or renamed.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	onChange func(index int)
	logger   *slog.Logger
	stopOnce sync.Once
}

func NewWatcher(root string, onChange func(index int), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     filepath.Clean(root),
		watcher:  watcher,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Start watches the root and every bundle directory, then processes events
// until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return err
	}

	go w.processEvents(ctx)
	return nil
}

// Stop releases the underlying watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		_ = w.watcher.Close()
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
				}
			}
			if index, ok := w.bundleIndex(event.Name); ok {
				w.logger.Debug("problem bundle changed", "index", index, "path", event.Name, "op", event.Op.String())
				w.onChange(index)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("problem watcher error", "error", err)
		}
	}
}

// bundleIndex maps <root>/<n> or <root>/<n>/<file> to n.
func (w *Watcher) bundleIndex(name string) (int, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return 0, false
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	index, err := strconv.Atoi(first)
	if err != nil || index < 1 {
		return 0, false
	}
	return index, true
}
