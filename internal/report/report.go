// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package report defines the outcome model for a mode application and the
// reporter contract the applier and plugins use to surface warnings,
// failures, and the final summary. Rendering lives behind the Reporter
// interface so tests can capture output and alternative front ends can
// format it differently.
package report

// Status classifies the result of one plugin within one applied mode.
type Status int

const (
	// StatusSuccess means configure and apply both completed.
	StatusSuccess Status = iota
	// StatusSkipped means the operator used the skip sentinel; the plugin
	// deliberately left its facet untouched.
	StatusSkipped
	// StatusConfigError means the configuration value was rejected before
	// any side effect took place.
	StatusConfigError
	// StatusApplyError means applying the validated configuration failed;
	// the side effect may have partially occurred.
	StatusApplyError
	// StatusUnknownPlugin means the mode referenced a plugin key that is
	// not present in the registry.
	StatusUnknownPlugin
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	case StatusConfigError:
		return "config-error"
	case StatusApplyError:
		return "apply-error"
	case StatusUnknownPlugin:
		return "unknown-plugin"
	default:
		return "unknown"
	}
}

// Failed reports whether this status counts toward mode-level failure.
func (s Status) Failed() bool {
	return s == StatusConfigError || s == StatusApplyError || s == StatusUnknownPlugin
}

// Outcome is the recorded result of one plugin key within a mode.
type Outcome struct {
	Plugin string `json:"plugin" yaml:"plugin"`
	Status Status `json:"-" yaml:"-"`
	// Detail carries the error text for failed outcomes, empty otherwise.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ModeOutcome aggregates the per-plugin outcomes of one applied mode, in the
// mode table's insertion order.
type ModeOutcome struct {
	Mode string `json:"mode" yaml:"mode"`
	// RunID identifies one apply invocation across log lines and hook events.
	RunID    string    `json:"run-id" yaml:"run-id"`
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Success reports whether the mode application succeeded overall: true iff
// no outcome failed. Downgraded command failures never reach the outcome
// list, so they do not count here.
func (m ModeOutcome) Success() bool {
	for _, o := range m.Outcomes {
		if o.Status.Failed() {
			return false
		}
	}
	return true
}

// Failures returns the outcomes that count toward mode-level failure, in order.
func (m ModeOutcome) Failures() []Outcome {
	var failed []Outcome
	for _, o := range m.Outcomes {
		if o.Status.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Reporter receives user-facing notifications during and after a mode
// application. Implementations must be safe for concurrent use: distinct
// plugins may apply in parallel and report interleaved warnings.
type Reporter interface {
	// Warning reports a non-fatal condition attributed to one plugin, such
	// as a command exiting non-zero with warning-on-failure enabled.
	Warning(plugin, detail string)
	// Failure reports a fatal per-plugin condition with its error detail.
	Failure(plugin, detail string)
	// Summary reports the final mode-level outcome after every plugin has
	// been attempted.
	Summary(outcome ModeOutcome)
}
