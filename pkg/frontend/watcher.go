package frontend

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
)

// Watcher purges the renderer's cache whenever a file in one of its
// template directories changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	renderer *Renderer
	logger   *observability.Logger
}

// NewWatcher watches every existing directory on the renderer's search path.
// Missing directories are skipped with a warning.
func NewWatcher(renderer *Renderer, logger *observability.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	for _, dir := range renderer.Dirs() {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.WithField("dir", dir).Warn("template directory does not exist, not watching")
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return &Watcher{watcher: fw, renderer: renderer, logger: logger}, nil
}

// Run processes events until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.renderer.Purge()
			w.logger.WithFields(map[string]interface{}{
				"file": event.Name,
				"op":   event.Op.String(),
			}).Debug("template changed, cache purged")
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("template watcher error")
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
