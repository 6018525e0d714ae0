package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/nodegraph/internal/eventbridge"
	"github.com/vk/nodegraph/internal/fsutil"
	"github.com/vk/nodegraph/internal/graphstore"
)

// watchDebounce batches bursts of file events into one reload.
const watchDebounce = 200 * time.Millisecond

// watch runs once, then reloads and re-runs whenever an .hcl file under the
// configured paths changes. A failing reload or run is logged and the
// previous state kept. It returns the last successful report when ctx is done.
func (a *App) watch(ctx context.Context, store graphstore.Store, bridge *eventbridge.Bridge) (*Report, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range []string{a.config.Path, a.config.ModulesPath} {
		if root == "" {
			continue
		}
		if err := addWatches(watcher, root); err != nil {
			return nil, fmt.Errorf("setting up watcher: %w", err)
		}
	}

	last, err := a.runOnce(ctx, store, bridge)
	if err != nil {
		a.logger.Error("Run failed, waiting for changes.", "error", err)
	}

	batch := time.NewTimer(watchDebounce)
	batch.Stop() // Don't start yet
	changed := make(map[string]struct{})

	a.logger.Info("👀 Watching for changes.", "path", a.config.Path, "modules_path", a.config.ModulesPath)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watch stopped.")
			return last, nil

		case event, ok := <-watcher.Events:
			if !ok {
				return last, nil
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatches(watcher, event.Name); err != nil {
						a.logger.Warn("Could not watch new directory.", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".hcl") {
				continue
			}
			changed[event.Name] = struct{}{}
			batch.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return last, nil
			}
			a.logger.Warn("Watch error.", "error", err)

		case <-batch.C:
			if len(changed) == 0 {
				continue
			}
			a.logger.Info("Reloading after changes.", "files", len(changed))
			changed = make(map[string]struct{})

			if err := a.load(ctx); err != nil {
				a.logger.Error("Reload failed, keeping previous configuration.", "error", err)
				continue
			}
			report, err := a.runOnce(ctx, store, bridge)
			if err != nil {
				a.logger.Error("Run failed, waiting for changes.", "error", err)
				continue
			}
			last = report
		}
	}
}

// addWatches watches root and, when it is a directory, every directory
// below it. A single file is watched through its parent directory.
func addWatches(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	dirs, err := fsutil.Dirs(root)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	return nil
}
