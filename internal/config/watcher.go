// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/PhoshMobi/feedbackd/internal/log"
)

// ThemeWatcher watches a theme's search directories for changes and
// signals onChange, debounced, so a rapid burst of writes (editor
// tmp+rename) triggers a single reload. Mirrors the teacher's
// ConfigHolder.watchLoop debounce pattern.
type ThemeWatcher struct {
	watcher   *fsnotify.Watcher
	onChange  func()
	debounce  time.Duration
}

// NewThemeWatcher creates a watcher over dirs (typically the loader's
// XDG search paths' "feedbackd/themes" subdirectories). Missing
// directories are skipped, not fatal.
func NewThemeWatcher(dirs []string, onChange func()) (*ThemeWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			log.L().Debug().Str("dir", d).Err(err).Msg("theme directory not watchable, skipping")
		}
	}
	return &ThemeWatcher{watcher: w, onChange: onChange, debounce: 500 * time.Millisecond}, nil
}

// Run blocks, dispatching debounced reloads until ctx is cancelled.
func (tw *ThemeWatcher) Run(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			_ = tw.watcher.Close()
			return
		case ev, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(tw.debounce, tw.onChange)
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			log.L().Warn().Err(err).Msg("theme watcher error")
		}
	}
}
