package manifest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a manifest file whenever it is written.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// NewWatcher starts watching path. The containing directory is watched so
// editors that replace the file on save are still noticed.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, watcher: fw, logger: logger}, nil
}

// Run delivers every reload to onChange until ctx is done. onChange runs on
// Run's goroutine. The watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, onChange func(*Manifest, error)) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("manifest changed", zap.String("path", w.path), zap.String("op", ev.Op.String()))
			m, err := Load(w.path)
			onChange(m, err)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("manifest watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) Path() string { return w.path }
