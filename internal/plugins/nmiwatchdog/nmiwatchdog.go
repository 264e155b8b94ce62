// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package nmiwatchdog implements the plugin that enables or disables the
// kernel's NMI (non-maskable interrupt) watchdog.
package nmiwatchdog

import (
	"context"
	"fmt"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/report"
	"github.com/powermodes/powermodes/internal/sysfs"
)

// Name is the plugin's identifier in mode tables.
const Name = "nmi-watchdog"

const attrPath = "proc/sys/kernel/nmi_watchdog"

// Plugin toggles /proc/sys/kernel/nmi_watchdog. It is configured with a
// boolean and opts into the skip sentinel.
type Plugin struct {
	fs *sysfs.FS
}

// New returns the plugin operating on the live kernel tree.
func New() *Plugin { return &Plugin{fs: sysfs.System} }

// NewWithFS returns the plugin operating on an alternate tree, for tests.
func NewWithFS(fs *sysfs.FS) *Plugin { return &Plugin{fs: fs} }

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return Name }

// Version implements plugin.Plugin.
func (p *Plugin) Version() string { return "1.0" }

// Configure implements plugin.Plugin.
func (p *Plugin) Configure(raw configvalue.Value) (plugin.Task, error) {
	if plugin.IsSkip(raw) {
		return plugin.Skip(), nil
	}
	enable, ok := raw.AsBoolean()
	if !ok {
		return nil, fmt.Errorf("configuration must be a boolean or %q, got %s",
			plugin.SkipSentinel, raw.Kind())
	}
	return &task{fs: p.fs, enable: enable}, nil
}

type task struct {
	fs     *sysfs.FS
	enable bool
}

func (t *task) Apply(ctx context.Context, rep report.Reporter) error {
	value := "0"
	verb := "disable"
	if t.enable {
		value = "1"
		verb = "enable"
	}
	if err := t.fs.WriteAttr(attrPath, value); err != nil {
		return fmt.Errorf("failed to %s NMI watchdog: %w", verb, err)
	}
	return nil
}
