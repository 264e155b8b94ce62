// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "config-error", StatusConfigError.String())
	assert.Equal(t, "apply-error", StatusApplyError.String())
	assert.Equal(t, "unknown-plugin", StatusUnknownPlugin.String())
}

func TestStatusFailed(t *testing.T) {
	assert.False(t, StatusSuccess.Failed())
	assert.False(t, StatusSkipped.Failed(), "a skip is a deliberate no-op, not a failure")
	assert.True(t, StatusConfigError.Failed())
	assert.True(t, StatusApplyError.Failed())
	assert.True(t, StatusUnknownPlugin.Failed())
}

func TestModeOutcomeSuccess(t *testing.T) {
	ok := ModeOutcome{Mode: "m", Outcomes: []Outcome{
		{Plugin: "a", Status: StatusSuccess},
		{Plugin: "b", Status: StatusSkipped},
	}}
	assert.True(t, ok.Success())
	assert.Empty(t, ok.Failures())

	mixed := ModeOutcome{Mode: "m", Outcomes: []Outcome{
		{Plugin: "a", Status: StatusSuccess},
		{Plugin: "b", Status: StatusApplyError, Detail: "boom"},
		{Plugin: "c", Status: StatusUnknownPlugin},
	}}
	assert.False(t, mixed.Success())
	failures := mixed.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "b", failures[0].Plugin)
	assert.Equal(t, "c", failures[1].Plugin)
}

func TestModeOutcomeEmptySucceeds(t *testing.T) {
	assert.True(t, ModeOutcome{Mode: "empty"}.Success())
}

func TestConsoleReporterYAMLSummary(t *testing.T) {
	var buf bytes.Buffer
	rep := NewConsoleReporter(FormatYAML)
	rep.out = &buf

	rep.Summary(ModeOutcome{
		Mode:  "powersave",
		RunID: "abc12345",
		Outcomes: []Outcome{
			{Plugin: "nmi-watchdog", Status: StatusSkipped},
			{Plugin: "command", Status: StatusApplyError, Detail: "command 2: spawn failed"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "mode: powersave")
	assert.Contains(t, out, "run-id: abc12345")
	assert.Contains(t, out, "success: false")
	assert.Contains(t, out, "status: skipped")
	assert.Contains(t, out, "status: apply-error")
	assert.Contains(t, out, "spawn failed")

	// Plugins come out in the order they were recorded.
	assert.Less(t, strings.Index(out, "nmi-watchdog"), strings.Index(out, "command"))
}

func TestNewConsoleReporterDefaultsToText(t *testing.T) {
	rep := NewConsoleReporter("")
	assert.Equal(t, FormatText, rep.format)
}
