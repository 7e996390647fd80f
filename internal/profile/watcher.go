package profile

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/jonathan/profiler/internal/types"
)

// TemplateSource supplies the config for newly created profiles
type TemplateSource interface {
	Current() types.ProfileConfig
}

// StaticTemplate is a TemplateSource that never changes
type StaticTemplate types.ProfileConfig

// Current implements TemplateSource
func (t StaticTemplate) Current() types.ProfileConfig {
	return types.ProfileConfig(t)
}

// TemplateWatcher reloads a template file whenever it changes on disk.
// Invalid edits are logged and the last good template stays active.
type TemplateWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.RWMutex
	current types.ProfileConfig
	reloads chan struct{}
}

// NewTemplateWatcher loads path and prepares to watch it
func NewTemplateWatcher(path string, logger *slog.Logger) (*TemplateWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := LoadTemplate(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &TemplateWatcher{
		path:    filepath.Clean(path),
		watcher: w,
		logger:  logger,
		current: cfg,
		reloads: make(chan struct{}, 1),
	}, nil
}

// Current implements TemplateSource
func (w *TemplateWatcher) Current() types.ProfileConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reloaded receives a value after each successful reload
func (w *TemplateWatcher) Reloaded() <-chan struct{} {
	return w.reloads
}

// Watch monitors the template's directory until ctx is cancelled. The
// directory is watched rather than the file so that editors that replace the
// file by rename are picked up.
func (w *TemplateWatcher) Watch(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				w.reload()
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("template watcher error", "path", w.path, "error", err)
			}
		}
	}()

	return nil
}

func (w *TemplateWatcher) reload() {
	cfg, err := LoadTemplate(w.path)
	if err != nil {
		w.logger.Warn("keeping previous profile template", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
	w.logger.Info("profile template reloaded", "path", w.path, "sections", len(cfg.Sections))

	select {
	case w.reloads <- struct{}{}:
	default:
	}
}

// Stop stops watching
func (w *TemplateWatcher) Stop() error {
	return w.watcher.Close()
}
