// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package intelpstate implements the plugin that configures the intel_pstate
// CPU frequency scaling driver.
//
// The plugin is configured with a table of optional fields; each present
// field is written to the corresponding attribute under
// /sys/devices/system/cpu/intel_pstate. Fields that the running driver mode
// or CPU cannot honor are reported as warnings rather than failing the whole
// plugin. See https://www.kernel.org/doc/html/latest/admin-guide/pm/intel_pstate.html.
package intelpstate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/report"
	"github.com/powermodes/powermodes/internal/sysfs"
)

// Name is the plugin's identifier in mode tables.
const Name = "intel-pstate"

const driverDir = "sys/devices/system/cpu/intel_pstate"

// Plugin configures the intel_pstate driver.
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

// settings is the validated configuration. Nil fields are left at whatever
// the driver currently has.
type settings struct {
	minPercent      *int64
	maxPercent      *int64
	turbo           *bool
	energyEfficient *bool
	dynamicBoost    *bool
}

// Configure implements plugin.Plugin. It validates shape and ranges only;
// whether the running driver can honor each field is checked during Apply,
// since Configure must not touch the system.
func (p *Plugin) Configure(raw configvalue.Value) (plugin.Task, error) {
	entries, ok := raw.Entries()
	if !ok {
		return nil, fmt.Errorf("configuration must be a table, got %s", raw.Kind())
	}

	var cfg settings
	for _, e := range entries {
		switch e.Key {
		case "min-percentage":
			pct, err := parsePercent(e.Value, e.Key)
			if err != nil {
				return nil, err
			}
			cfg.minPercent = &pct
		case "max-percentage":
			pct, err := parsePercent(e.Value, e.Key)
			if err != nil {
				return nil, err
			}
			cfg.maxPercent = &pct
		case "turbo":
			b, err := parseBool(e.Value, e.Key)
			if err != nil {
				return nil, err
			}
			cfg.turbo = &b
		case "energy-efficient":
			b, err := parseBool(e.Value, e.Key)
			if err != nil {
				return nil, err
			}
			cfg.energyEfficient = &b
		case "dynamic-boost":
			b, err := parseBool(e.Value, e.Key)
			if err != nil {
				return nil, err
			}
			cfg.dynamicBoost = &b
		default:
			return nil, fmt.Errorf("unknown field %q", e.Key)
		}
	}

	if cfg.minPercent != nil && cfg.maxPercent != nil && *cfg.minPercent > *cfg.maxPercent {
		return nil, fmt.Errorf("min-percentage (%d) must not exceed max-percentage (%d)",
			*cfg.minPercent, *cfg.maxPercent)
	}
	if cfg.minPercent == nil && cfg.maxPercent == nil && cfg.turbo == nil &&
		cfg.energyEfficient == nil && cfg.dynamicBoost == nil {
		return nil, fmt.Errorf("configuration table is empty")
	}

	return &task{fs: p.fs, cfg: cfg}, nil
}

func parsePercent(v configvalue.Value, key string) (int64, error) {
	pct, ok := v.AsInteger()
	if !ok {
		return 0, fmt.Errorf("%q must be an integer, got %s", key, v.Kind())
	}
	if pct < 0 || pct > 100 {
		return 0, fmt.Errorf("%q must be between 0 and 100, got %d", key, pct)
	}
	return pct, nil
}

func parseBool(v configvalue.Value, key string) (bool, error) {
	b, ok := v.AsBoolean()
	if !ok {
		return false, fmt.Errorf("%q must be a boolean, got %s", key, v.Kind())
	}
	return b, nil
}

type task struct {
	fs  *sysfs.FS
	cfg settings
}

func (t *task) Apply(ctx context.Context, rep report.Reporter) error {
	status, err := t.fs.ReadAttr(driverDir + "/status")
	if err != nil {
		return fmt.Errorf("intel_pstate driver not available: %w", err)
	}
	switch status {
	case "active", "passive":
	case "off":
		return fmt.Errorf("intel_pstate driver is off")
	default:
		return fmt.Errorf("intel_pstate reported an unknown status %q", status)
	}

	wrote := false
	write := func(attr, value string) error {
		if err := t.fs.WriteAttr(driverDir+"/"+attr, value); err != nil {
			return err
		}
		wrote = true
		return nil
	}

	if t.cfg.minPercent != nil {
		if err := write("min_perf_pct", strconv.FormatInt(*t.cfg.minPercent, 10)); err != nil {
			return err
		}
	}
	if t.cfg.maxPercent != nil {
		if err := write("max_perf_pct", strconv.FormatInt(*t.cfg.maxPercent, 10)); err != nil {
			return err
		}
	}

	if t.cfg.turbo != nil {
		if t.canTurbo() {
			noTurbo := "1"
			if *t.cfg.turbo {
				noTurbo = "0"
			}
			if err := write("no_turbo", noTurbo); err != nil {
				return err
			}
		} else {
			rep.Warning(Name, "CPU does not support turbo boost; ignoring \"turbo\"")
		}
	}

	// energy_efficiency and hwp_dynamic_boost exist only in active mode.
	if t.cfg.energyEfficient != nil {
		if status == "active" {
			if err := write("energy_efficiency", boolAttr(*t.cfg.energyEfficient)); err != nil {
				return err
			}
		} else {
			rep.Warning(Name, "driver is in passive mode; ignoring \"energy-efficient\"")
		}
	}
	if t.cfg.dynamicBoost != nil {
		if status == "active" {
			if err := write("hwp_dynamic_boost", boolAttr(*t.cfg.dynamicBoost)); err != nil {
				return err
			}
		} else {
			rep.Warning(Name, "driver is in passive mode; ignoring \"dynamic-boost\"")
		}
	}

	if !wrote {
		return fmt.Errorf("no applicable setting could be written")
	}
	return nil
}

// canTurbo reports whether the CPU advertises Intel Dynamic Acceleration.
func (t *task) canTurbo() bool {
	flags, err := t.fs.CPUFlags()
	if err != nil {
		return false
	}
	return flags["ida"]
}

func boolAttr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
