// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package plugin defines the contract every power-mode handler implements.
//
// A plugin interprets one entry of a mode's configuration table and applies
// it to one facet of the machine (a kernel interface, CPU registers, a list
// of shell commands). Configure is pure: it either yields a Task ready to be
// applied or rejects the value with a precise error, and never touches the
// system. Apply performs the side effect, at most once per Task.
//
// The phase an error comes from is what classifies it: any error returned by
// Configure is a configuration error with no side effects behind it, and any
// error returned by Apply is an infrastructural apply failure that may have
// left a partial effect.
package plugin

import (
	"context"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/report"
)

// Task is the validated, plugin-specific result of interpreting a
// configuration value. It is produced by exactly one plugin instance and
// applied at most once. Tasks belonging to distinct plugins may be applied
// concurrently; a Task must not assume anything about the progress of any
// other plugin while it runs.
type Task interface {
	// Apply performs the side effect. Non-fatal conditions (such as a
	// command exiting non-zero) are reported through rep rather than
	// returned; a returned error means an infrastructural failure.
	Apply(ctx context.Context, rep report.Reporter) error
}

// Plugin is the capability every handler implements.
type Plugin interface {
	// Name returns the identifier used as this plugin's key in mode tables.
	Name() string
	// Version returns the plugin's self-reported version string.
	Version() string
	// Configure validates raw against the plugin's documented shape and
	// returns the Task to apply it. Configure is side-effect free and
	// deterministic: the same value on a fresh instance yields the same
	// result. Plugins that opt into the skip sentinel return Skip().
	Configure(raw configvalue.Value) (Task, error)
}

// Interactive is an optional capability: plugins that can drive an
// interactive configuration flow implement it in addition to Plugin. The
// returned value is fed back into Configure by the caller.
type Interactive interface {
	Interact(ctx context.Context) (configvalue.Value, error)
}

// SkipSentinel is the reserved string value an operator writes to state that
// a mode intentionally leaves a facet at its current, unmanaged state. This
// is an opt-in convention: a plugin must document that it accepts the
// sentinel; absence of the key is not the same as an explicit skip.
const SkipSentinel = "skip"

// IsSkip reports whether raw is the skip sentinel.
func IsSkip(raw configvalue.Value) bool {
	s, ok := raw.AsString()
	return ok && s == SkipSentinel
}

type skipTask struct{}

func (skipTask) Apply(context.Context, report.Reporter) error { return nil }

var skip Task = skipTask{}

// Skip returns the shared no-op Task a plugin hands back when it accepts the
// skip sentinel. The applier recognizes it and records the plugin as skipped
// rather than succeeded; Apply is still invoked and is a guaranteed no-op.
func Skip() Task { return skip }

// IsSkipTask reports whether t is the shared skip Task.
func IsSkipTask(t Task) bool { return t == skip }
