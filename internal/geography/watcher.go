package geography

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the extents file whenever it changes on disk, replacing the
// periodic staleness check the data pipeline used to rely on. Watching the
// parent directory instead of the file itself survives the rename-over-write
// pattern most generators use. Returns immediately when path is empty.
func (v *Validator) Watch(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if filepath.Clean(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := v.loadFile(target); err != nil {
					v.logger.Warn("highway extents reload failed", "path", target, "error", err)
				}
			case err := <-watcher.Errors:
				v.logger.Warn("highway extents watcher error", "error", err)
			}
		}
	}()

	return watcher.Add(filepath.Dir(target))
}
