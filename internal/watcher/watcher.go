// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package watcher re-applies a mode whenever the configuration file changes.
// It watches the directory containing the file rather than the file itself,
// because editors commonly replace files via rename.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// debounce coalesces the burst of events an editor save produces.
const debounce = 250 * time.Millisecond

// Watcher invokes a callback when the watched configuration file changes.
type Watcher struct {
	configPath string
	onChange   func()
	fsw        *fsnotify.Watcher
}

// New creates a watcher for configPath. onChange runs on the watcher's
// goroutine after each (debounced) change.
func New(configPath string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(configPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(configPath), err)
	}
	return &Watcher{configPath: configPath, onChange: onChange, fsw: fsw}, nil
}

// Run blocks, dispatching onChange until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debugf("config file changed (%s)", event.Op)
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Errorf("config watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
