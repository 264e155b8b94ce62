// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package intelepb implements the plugin that sets the Intel Performance and
// Energy Bias Hint (EPB) on every CPU that supports it.
//
// See https://docs.kernel.org/admin-guide/pm/intel_epb.html for the meaning
// of the bias values.
package intelepb

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/report"
	"github.com/powermodes/powermodes/internal/sysfs"
)

// Name is the plugin's identifier in mode tables.
const Name = "intel-epb"

// presets maps the accepted named bias levels to their numeric values.
var presets = map[string]int64{
	"performance":         0,
	"balance-performance": 4,
	"normal":              6,
	"default":             6,
	"normal-powersave":    7,
	"balance-power":       8,
	"power":               15,
}

// Plugin writes an energy bias value between 0 (performance) and 15 (power
// saving) to cpuN/power/energy_perf_bias. It is configured with either an
// integer in that range or one of the preset names, and opts into the skip
// sentinel.
type Plugin struct {
	fs *sysfs.FS
	in io.Reader
}

// New returns the plugin operating on the live kernel tree.
func New() *Plugin { return &Plugin{fs: sysfs.System, in: os.Stdin} }

// NewWithFS returns the plugin operating on an alternate tree, for tests.
func NewWithFS(fs *sysfs.FS) *Plugin { return &Plugin{fs: fs, in: os.Stdin} }

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return Name }

// Version implements plugin.Plugin.
func (p *Plugin) Version() string { return "1.0" }

// Configure implements plugin.Plugin.
func (p *Plugin) Configure(raw configvalue.Value) (plugin.Task, error) {
	if plugin.IsSkip(raw) {
		return plugin.Skip(), nil
	}

	if bias, ok := raw.AsInteger(); ok {
		if bias < 0 || bias > 15 {
			return nil, fmt.Errorf("bias must be between 0 and 15, got %d", bias)
		}
		return &task{fs: p.fs, bias: bias}, nil
	}

	if name, ok := raw.AsString(); ok {
		bias, known := presets[name]
		if !known {
			return nil, fmt.Errorf("unknown bias preset %q; accepted presets: %s",
				name, presetNames())
		}
		return &task{fs: p.fs, bias: bias}, nil
	}

	return nil, fmt.Errorf("configuration must be an integer between 0 and 15 or a preset name, got %s",
		raw.Kind())
}

// Interact implements plugin.Interactive: it prompts for a bias value or
// preset name and hands the answer back as a configuration value.
func (p *Plugin) Interact(ctx context.Context) (configvalue.Value, error) {
	fmt.Printf("Energy bias, 0 (performance) to 15 (power saving), or a preset (%s): ", presetNames())

	scanner := bufio.NewScanner(p.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return configvalue.Value{}, err
		}
		return configvalue.Value{}, fmt.Errorf("no input")
	}
	answer := strings.TrimSpace(scanner.Text())

	if bias, err := strconv.ParseInt(answer, 10, 64); err == nil {
		return configvalue.NewInteger(bias), nil
	}
	return configvalue.NewString(answer), nil
}

func presetNames() string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

type task struct {
	fs   *sysfs.FS
	bias int64
}

// Apply writes the bias to every CPU exposing an energy_perf_bias attribute.
// CPUs without the attribute produce a single warning listing them; a write
// failure on one CPU is a warning as long as at least one CPU was set. Only
// when no CPU could be written does Apply fail.
func (t *task) Apply(ctx context.Context, rep report.Reporter) error {
	cpus, err := t.fs.CPUs()
	if err != nil {
		return err
	}
	if len(cpus) == 0 {
		return fmt.Errorf("no CPUs detected")
	}

	var supported, unsupported []string
	for _, cpu := range cpus {
		attr := path.Join("sys/devices/system/cpu", cpu, "power/energy_perf_bias")
		if t.fs.Exists(attr) {
			supported = append(supported, cpu)
		} else {
			unsupported = append(unsupported, cpu)
		}
	}

	if len(supported) == 0 {
		return fmt.Errorf("EPB is not supported on this system")
	}
	if len(unsupported) > 0 {
		rep.Warning(Name, fmt.Sprintf("the following CPUs don't support EPB: %s",
			strings.Join(unsupported, ", ")))
	}

	value := strconv.FormatInt(t.bias, 10)
	written := 0
	for _, cpu := range supported {
		attr := path.Join("sys/devices/system/cpu", cpu, "power/energy_perf_bias")
		if err := t.fs.WriteAttr(attr, value); err != nil {
			rep.Warning(Name, fmt.Sprintf("failed to set EPB for %s", cpu))
			continue
		}
		written++
	}

	if written == 0 {
		return fmt.Errorf("failed to set EPB on every CPU")
	}
	return nil
}
