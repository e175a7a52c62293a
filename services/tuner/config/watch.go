// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the config file at path whenever it changes.
//
// Description:
//
//	Watches the file's parent directory so atomic rename-on-save is seen.
//	Events are debounced; after a quiet period the file is re-read with
//	Load and, if valid, passed to onChange. Invalid reloads are logged and
//	the previous configuration stays in effect.
//
// Inputs:
//
//	ctx - Watching stops when ctx is cancelled.
//	path - The config file. Must be non-empty.
//	onChange - Called from the watcher goroutine with each valid reload.
//
// Outputs:
//
//	error - Non-nil if the watcher cannot be created. Returns nil on ctx
//	cancellation.
//
// Thread Safety: onChange is never called concurrently with itself.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	if path == "" {
		return fmt.Errorf("watch config: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	logger := slog.With("component", "config_watcher", "path", abs)
	logger.Info("Watching config file")

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", "error", err)

		case <-fire:
			fire = nil
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("Ignoring invalid config reload", "error", err)
				continue
			}
			logger.Info("Config reloaded", "log_level", cfg.Logging.Level)
			onChange(cfg)
		}
	}
}
