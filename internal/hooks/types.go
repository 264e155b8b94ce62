// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hooks provides automation rules that react to mode-application
// events: YAML-defined hooks with expression conditions and pluggable
// actions, decoupled from the applier through an event bus.
package hooks

import "time"

// Event is the type of occurrence that can trigger a hook.
type Event string

const (
	// EventModeApplied fires once per apply invocation, after every plugin
	// has been attempted. Data carries "success", "failed", and "plugins".
	EventModeApplied Event = "mode_applied"
	// EventPluginFailed fires for every fatal per-plugin failure. Data
	// carries "detail".
	EventPluginFailed Event = "plugin_failed"
	// EventPluginWarning fires for every non-fatal warning, including
	// command exits downgraded by warning-on-failure. Data carries "detail".
	EventPluginWarning Event = "plugin_warning"
)

// Action names the handler to run when a hook triggers.
type Action string

const (
	ActionLogWarning    Action = "log_warning"
	ActionRunCommand    Action = "run_command"
	ActionNotifyWebhook Action = "notify_webhook"
)

// Hook is a single automation rule loaded from a YAML file.
type Hook struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Event       Event          `yaml:"event"`
	Condition   string         `yaml:"condition"`
	Action      Action         `yaml:"action"`
	Params      map[string]any `yaml:"params"`
	Enabled     bool           `yaml:"enabled"`

	// FilePath records the source file; not part of the YAML shape.
	FilePath string `yaml:"-"`
}

// EventContext is the environment a hook condition and action see.
type EventContext struct {
	Event     Event
	Timestamp time.Time
	// Mode is the mode being applied.
	Mode string
	// Plugin is the plugin the event concerns, if any.
	Plugin string
	// RunID ties events of one apply invocation together.
	RunID string
	Data  map[string]any
}

// ActionHandler executes one hook action.
type ActionHandler func(hook *Hook, ctx *EventContext) error
