// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hooks

import (
	"time"

	"github.com/powermodes/powermodes/internal/report"
)

// ReporterBridge is a report.Reporter that forwards to another reporter and
// publishes the corresponding events on the bus. The applier stays unaware
// of the hook system; wiring the bridge in is the CLI's choice.
type ReporterBridge struct {
	next report.Reporter
	bus  *EventBus
	mode string
}

// NewReporterBridge wraps next so that warnings, failures, and the final
// summary also surface as events for hooks.
func NewReporterBridge(next report.Reporter, bus *EventBus, mode string) *ReporterBridge {
	return &ReporterBridge{next: next, bus: bus, mode: mode}
}

// Warning implements report.Reporter.
func (b *ReporterBridge) Warning(plugin, detail string) {
	b.next.Warning(plugin, detail)
	b.bus.Publish(&EventContext{
		Event:     EventPluginWarning,
		Timestamp: time.Now(),
		Mode:      b.mode,
		Plugin:    plugin,
		Data:      map[string]any{"detail": detail},
	})
}

// Failure implements report.Reporter.
func (b *ReporterBridge) Failure(plugin, detail string) {
	b.next.Failure(plugin, detail)
	b.bus.Publish(&EventContext{
		Event:     EventPluginFailed,
		Timestamp: time.Now(),
		Mode:      b.mode,
		Plugin:    plugin,
		Data:      map[string]any{"detail": detail},
	})
}

// Summary implements report.Reporter.
func (b *ReporterBridge) Summary(outcome report.ModeOutcome) {
	b.next.Summary(outcome)

	plugins := make([]string, 0, len(outcome.Outcomes))
	failed := make([]string, 0)
	for _, o := range outcome.Outcomes {
		plugins = append(plugins, o.Plugin)
		if o.Status.Failed() {
			failed = append(failed, o.Plugin)
		}
	}
	b.bus.Publish(&EventContext{
		Event:     EventModeApplied,
		Timestamp: time.Now(),
		Mode:      outcome.Mode,
		RunID:     outcome.RunID,
		Data: map[string]any{
			"success": outcome.Success(),
			"failed":  failed,
			"plugins": plugins,
		},
	})
}
