// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nmiwatchdog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/report"
	"github.com/powermodes/powermodes/internal/sysfs"
)

type nopReporter struct{}

func (nopReporter) Warning(string, string)     {}
func (nopReporter) Failure(string, string)     {}
func (nopReporter) Summary(report.ModeOutcome) {}

func newTestFS(t *testing.T, initial string) (*sysfs.FS, string) {
	t.Helper()
	root := t.TempDir()
	attr := filepath.Join(root, "proc/sys/kernel/nmi_watchdog")
	require.NoError(t, os.MkdirAll(filepath.Dir(attr), 0o755))
	require.NoError(t, os.WriteFile(attr, []byte(initial), 0o644))
	return sysfs.New(root), attr
}

func TestConfigureBoolean(t *testing.T) {
	fs, attr := newTestFS(t, "1\n")
	p := NewWithFS(fs)

	tk, err := p.Configure(configvalue.NewBoolean(false))
	require.NoError(t, err)
	require.NoError(t, tk.Apply(context.Background(), nopReporter{}))

	data, err := os.ReadFile(attr)
	require.NoError(t, err)
	assert.Equal(t, "0\n", string(data))
}

func TestConfigureEnable(t *testing.T) {
	fs, attr := newTestFS(t, "0\n")
	p := NewWithFS(fs)

	tk, err := p.Configure(configvalue.NewBoolean(true))
	require.NoError(t, err)
	require.NoError(t, tk.Apply(context.Background(), nopReporter{}))

	data, err := os.ReadFile(attr)
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(data))
}

func TestConfigureSkip(t *testing.T) {
	fs, attr := newTestFS(t, "1\n")
	p := NewWithFS(fs)

	tk, err := p.Configure(configvalue.NewString("skip"))
	require.NoError(t, err)
	require.True(t, plugin.IsSkipTask(tk))
	require.NoError(t, tk.Apply(context.Background(), nopReporter{}))

	data, err := os.ReadFile(attr)
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(data), "skipping must leave the watchdog alone")
}

func TestConfigureRejectsOtherValues(t *testing.T) {
	p := NewWithFS(sysfs.New(t.TempDir()))
	for _, raw := range []configvalue.Value{
		configvalue.NewInteger(1),
		configvalue.NewString("on"),
		configvalue.NewList(configvalue.NewBoolean(true)),
	} {
		_, err := p.Configure(raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be a boolean")
	}
}

func TestApplyMissingAttrFails(t *testing.T) {
	p := NewWithFS(sysfs.New(t.TempDir()))
	tk, err := p.Configure(configvalue.NewBoolean(true))
	require.NoError(t, err)

	err = tk.Apply(context.Background(), nopReporter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enable NMI watchdog")
}
