// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

// Manager loads hooks from a directory and executes their actions when
// matching events arrive on the bus.
type Manager struct {
	hooksDir string
	bus      *EventBus

	mu       sync.RWMutex
	hooks    map[Event][]*Hook
	programs map[string]*vm.Program
	handlers map[Action]ActionHandler

	watcher     *fsnotify.Watcher
	stopWatcher chan struct{}
	stopOnce    sync.Once

	// wg tracks in-flight actions so Close can drain them.
	wg sync.WaitGroup
}

// NewManager creates a hook manager reading hook files from hooksDir and
// listening on bus. Built-in actions are registered; callers may add more
// with RegisterAction before loading.
func NewManager(hooksDir string, bus *EventBus) *Manager {
	m := &Manager{
		hooksDir:    hooksDir,
		bus:         bus,
		hooks:       make(map[Event][]*Hook),
		programs:    make(map[string]*vm.Program),
		handlers:    make(map[Action]ActionHandler),
		stopWatcher: make(chan struct{}),
	}
	registerBuiltInActions(m)

	for _, evt := range []Event{EventModeApplied, EventPluginFailed, EventPluginWarning} {
		bus.Subscribe(evt, m.handleEvent)
	}
	return m
}

// RegisterAction binds a handler to an action name.
func (m *Manager) RegisterAction(action Action, handler ActionHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[action] = handler
}

// Load reads every enabled hook from the hooks directory. A directory that
// does not exist yields zero hooks, not an error.
func (m *Manager) Load() error {
	loaded := make(map[Event][]*Hook)

	err := filepath.Walk(m.hooksDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || (!strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml")) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Errorf("failed to read hook file %s: %v", path, err)
			return nil
		}
		var hook Hook
		if err := yaml.Unmarshal(data, &hook); err != nil {
			log.Errorf("failed to parse hook file %s: %v", path, err)
			return nil
		}
		hook.FilePath = path
		if hook.Enabled {
			loaded[hook.Event] = append(loaded[hook.Event], &hook)
			log.Debugf("loaded hook %s for event %s", hook.Name, hook.Event)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	m.mu.Lock()
	m.hooks = loaded
	m.programs = make(map[string]*vm.Program)
	m.mu.Unlock()
	return nil
}

func (m *Manager) handleEvent(ctx *EventContext) {
	m.mu.RLock()
	hooks := m.hooks[ctx.Event]
	m.mu.RUnlock()

	for _, hook := range hooks {
		matches, err := m.evaluateCondition(hook.Condition, ctx)
		if err != nil {
			log.Warnf("failed to evaluate condition of hook %s: %v", hook.Name, err)
			continue
		}
		if !matches {
			continue
		}

		log.Debugf("executing hook %s (action %s)", hook.Name, hook.Action)
		m.wg.Add(1)
		go func(hook *Hook) {
			defer m.wg.Done()
			m.executeAction(hook, ctx)
		}(hook)
	}
}

func (m *Manager) evaluateCondition(condition string, ctx *EventContext) (bool, error) {
	if condition == "" || condition == "true" {
		return true, nil
	}

	m.mu.Lock()
	program, cached := m.programs[condition]
	if !cached {
		var err error
		program, err = expr.Compile(condition)
		if err != nil {
			m.mu.Unlock()
			return false, err
		}
		m.programs[condition] = program
	}
	m.mu.Unlock()

	env := map[string]any{
		"Event":  string(ctx.Event),
		"Mode":   ctx.Mode,
		"Plugin": ctx.Plugin,
		"Data":   ctx.Data,
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not return a boolean")
	}
	return result, nil
}

func (m *Manager) executeAction(hook *Hook, ctx *EventContext) {
	m.mu.RLock()
	handler, exists := m.handlers[hook.Action]
	m.mu.RUnlock()

	if !exists {
		log.Warnf("no handler registered for action %q", hook.Action)
		return
	}
	if err := handler(hook, ctx); err != nil {
		log.Errorf("action %s failed for hook %s: %v", hook.Action, hook.Name, err)
	}
}

// Wait blocks until every in-flight action has finished. The CLI calls this
// before exiting so one-shot invocations do not drop hook actions.
func (m *Manager) Wait() { m.wg.Wait() }

// StartWatcher hot-reloads the hook directory on changes. Used in watch mode.
func (m *Manager) StartWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.hooksDir); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					log.Infof("hook directory changed (%s), reloading", event.Name)
					time.Sleep(100 * time.Millisecond)
					if err := m.Load(); err != nil {
						log.Errorf("failed to reload hooks: %v", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("hook watcher error: %v", err)
			case <-m.stopWatcher:
				return
			}
		}
	}()
	return nil
}

// Close stops the watcher, if any, and drains in-flight actions.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stopWatcher) })
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}
