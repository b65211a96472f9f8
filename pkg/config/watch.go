package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch blocks until ctx is cancelled, invoking onChange with a freshly loaded
// Config every time the config.toml under the Configer's target directory is
// written or recreated. Editors that replace the file on save (rename + create)
// are handled by watching the parent directory rather than the file itself.
//
// Returns immediately with nil when the Configer has no resolved target path.
func (c *Configer) Watch(ctx context.Context, onChange func(*Config)) error {
	if c.targetPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(c.targetPath)); err != nil {
		return fmt.Errorf("watching config dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(c.targetPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := c.LoadConfig()
			if err != nil {
				// A half-written file can fail to parse; keep the old
				// config and wait for the next write.
				continue
			}
			onChange(cfg)
		case err := <-watcher.Errors:
			return fmt.Errorf("config watcher error: %w", err)
		}
	}
}
