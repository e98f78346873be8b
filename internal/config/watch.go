package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the bursts of events editors produce on save.
const reloadDelay = 100 * time.Millisecond

// Watch calls onChange with the new settings each time path is written,
// until ctx is done. The directory is watched rather than the file so
// editors that replace the file on save are followed.
//
// A file that no longer parses is logged and skipped; onChange only ever
// sees valid settings.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(Settings)) error {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch settings: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch settings: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			s, err := Load(abs)
			if err != nil {
				logger.Warn("settings not reloaded", "path", abs, "error", err)
				continue
			}
			logger.Info("settings reloaded", "path", abs, "log_level", s.LogLevel)
			onChange(s)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("settings watch error", "error", err)
		}
	}
}

// ApplyLevel sets lv from s, leaving it unchanged if the level is invalid.
func ApplyLevel(lv *slog.LevelVar, s Settings) {
	if l, err := s.Level(); err == nil {
		lv.Set(l)
	}
}
