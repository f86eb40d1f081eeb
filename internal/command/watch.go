package command

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the command file whenever it changes on disk, until the
// context is cancelled. Reload failures are logged and the last-known-good
// snapshot stays active; editors that replace the file (rename + create) are
// handled by watching the parent directory.
func (s *Store) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, open := <-watcher.Events:
			if !open {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if err := s.LoadFile(path); err != nil && s.logger != nil {
				s.logger.Warn("command config reload failed; keeping previous snapshot", "error", err.Error())
			}
		case err, open := <-watcher.Errors:
			if !open {
				return nil
			}
			if s.logger != nil {
				s.logger.Warn("command config watcher error", "error", err.Error())
			}
		}
	}
}
