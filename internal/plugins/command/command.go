// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package command implements the built-in plugin that runs arbitrary
// external commands as part of a mode.
//
// The plugin is configured with a list of tables, one per command. A command
// is either a single string, handed to a shell, or a list of strings, execed
// directly. Commands run strictly in list order regardless of what other
// plugins do concurrently; a failing command never skips the ones after it.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/executor"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/report"
)

// Name is the plugin's identifier in mode tables.
const Name = "command"

// descriptor is one parsed entry of the command list. It is built once
// during Configure, applied once, and then discarded with its task.
type descriptor struct {
	cmd executor.Command
	// warnOnFailure gates both the warning and the significance of a
	// non-zero exit status. When false the exit status is ignored entirely.
	warnOnFailure bool
}

// RunFunc spawns one command; it exists so tests can intercept execution.
type RunFunc func(ctx context.Context, c executor.Command) (executor.Result, error)

// Plugin runs lists of external commands.
type Plugin struct {
	run RunFunc
}

// New returns the command plugin backed by the real executor.
func New() *Plugin { return &Plugin{run: executor.Run} }

// NewWithRunner returns a command plugin using run instead of the real
// executor. Intended for tests.
func NewWithRunner(run RunFunc) *Plugin { return &Plugin{run: run} }

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return Name }

// Version implements plugin.Plugin.
func (p *Plugin) Version() string { return "1.0" }

// Configure implements plugin.Plugin. The value must be a list of command
// tables; any unrecognized field, wrong type, or malformed command rejects
// the whole configuration.
func (p *Plugin) Configure(raw configvalue.Value) (plugin.Task, error) {
	list, ok := raw.AsList()
	if !ok {
		return nil, fmt.Errorf("configuration must be a list of commands, got %s", raw.Kind())
	}

	descriptors := make([]descriptor, 0, len(list))
	for i, elem := range list {
		d, err := parseDescriptor(elem, i+1)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}

	return &task{descriptors: descriptors, run: p.run}, nil
}

func parseDescriptor(v configvalue.Value, number int) (descriptor, error) {
	entries, ok := v.Entries()
	if !ok {
		return descriptor{}, fmt.Errorf("command %d must be a table, got %s", number, v.Kind())
	}

	var (
		d        = descriptor{warnOnFailure: true}
		haveCmd  bool
		unknowns []string
	)
	d.cmd.ShowStderr = true

	for _, e := range entries {
		switch e.Key {
		case "command":
			if err := parseCommand(e.Value, number, &d.cmd); err != nil {
				return descriptor{}, err
			}
			haveCmd = true
		case "allow-stdin":
			b, err := parseBoolean(e.Value, e.Key, number)
			if err != nil {
				return descriptor{}, err
			}
			d.cmd.AllowStdin = b
		case "show-stdout":
			b, err := parseBoolean(e.Value, e.Key, number)
			if err != nil {
				return descriptor{}, err
			}
			d.cmd.ShowStdout = b
		case "show-stderr":
			b, err := parseBoolean(e.Value, e.Key, number)
			if err != nil {
				return descriptor{}, err
			}
			d.cmd.ShowStderr = b
		case "warning-on-failure":
			b, err := parseBoolean(e.Value, e.Key, number)
			if err != nil {
				return descriptor{}, err
			}
			d.warnOnFailure = b
		default:
			unknowns = append(unknowns, e.Key)
		}
	}

	if len(unknowns) > 0 {
		return descriptor{}, fmt.Errorf("command %d has unknown fields: %s",
			number, strings.Join(unknowns, ", "))
	}
	if !haveCmd {
		return descriptor{}, fmt.Errorf("command %d is missing the \"command\" field", number)
	}
	return d, nil
}

func parseCommand(v configvalue.Value, number int, out *executor.Command) error {
	if s, ok := v.AsString(); ok {
		out.Shell = s
		return nil
	}
	if list, ok := v.AsList(); ok {
		argv := make([]string, len(list))
		for i, elem := range list {
			s, ok := elem.AsString()
			if !ok {
				return fmt.Errorf("command %d: \"command\" list element %d must be a string, got %s",
					number, i+1, elem.Kind())
			}
			argv[i] = s
		}
		if len(argv) == 0 {
			return fmt.Errorf("command %d: \"command\" list must not be empty", number)
		}
		out.Argv = argv
		return nil
	}
	return fmt.Errorf("command %d: \"command\" must be a string or a list of strings, got %s",
		number, v.Kind())
}

func parseBoolean(v configvalue.Value, key string, number int) (bool, error) {
	b, ok := v.AsBoolean()
	if !ok {
		return false, fmt.Errorf("command %d: %q must be a boolean, got %s", number, key, v.Kind())
	}
	return b, nil
}

type task struct {
	descriptors []descriptor
	run         RunFunc
}

// Apply runs every command in list order. A non-zero exit status is never an
// apply error: with warning-on-failure it produces a warning (including the
// captured stderr when the stream was suppressed), without it the status is
// ignored. Only infrastructural failures, such as an executable that cannot
// be spawned, abort the list and surface as an apply error.
func (t *task) Apply(ctx context.Context, rep report.Reporter) error {
	for i, d := range t.descriptors {
		result, err := t.run(ctx, d.cmd)
		if err != nil {
			return fmt.Errorf("command %d: %w", i+1, err)
		}

		if result.ExitCode != 0 && d.warnOnFailure {
			msg := fmt.Sprintf("command %d exited with status %d", i+1, result.ExitCode)
			if stderr := strings.TrimRight(string(result.Stderr), "\n"); stderr != "" {
				msg += ". Program stderr:\n" + stderr
			}
			rep.Warning(Name, msg)
		}
	}
	return nil
}
