package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events one editor save produces.
const watchDebounce = 200 * time.Millisecond

// Watch reloads path after it changes and hands the result to onChange until ctx ends.
// The parent directory is watched so editors that replace the file by rename are seen.
// Load failures go to onError and the previous config stays in effect.
func Watch(ctx context.Context, path string, defaults Config, onChange func(Config), onError func(error)) error {
	if onChange == nil {
		return fmt.Errorf("watch config: onChange is required")
	}
	if onError == nil {
		onError = func(error) {}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(fmt.Errorf("config watcher: %w", err))
		case <-timer.C:
			cfg, err := Load(abs, defaults)
			if err != nil {
				onError(err)
				continue
			}
			onChange(cfg)
		}
	}
}
