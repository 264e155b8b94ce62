// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intelepb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/report"
	"github.com/powermodes/powermodes/internal/sysfs"
)

type recorder struct {
	mu       sync.Mutex
	warnings []string
}

func (r *recorder) Warning(plugin, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, detail)
}

func (r *recorder) Failure(string, string)     {}
func (r *recorder) Summary(report.ModeOutcome) {}

// fakeCPUs builds a cpu tree where the listed CPUs expose energy_perf_bias.
func fakeCPUs(t *testing.T, total int, withEPB ...int) *sysfs.FS {
	t.Helper()
	root := t.TempDir()
	epb := make(map[int]bool)
	for _, n := range withEPB {
		epb[n] = true
	}
	for n := 0; n < total; n++ {
		dir := filepath.Join(root, "sys/devices/system/cpu", fmt.Sprintf("cpu%d", n))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		if epb[n] {
			powerDir := filepath.Join(dir, "power")
			require.NoError(t, os.MkdirAll(powerDir, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(powerDir, "energy_perf_bias"), []byte("6\n"), 0o644))
		}
	}
	return sysfs.New(root)
}

func readBias(t *testing.T, fs *sysfs.FS, cpu string) string {
	t.Helper()
	got, err := fs.ReadAttr("sys/devices/system/cpu/" + cpu + "/power/energy_perf_bias")
	require.NoError(t, err)
	return got
}

func TestConfigureIntegerRange(t *testing.T) {
	p := NewWithFS(fakeCPUs(t, 1, 0))

	_, err := p.Configure(configvalue.NewInteger(0))
	require.NoError(t, err)
	_, err = p.Configure(configvalue.NewInteger(15))
	require.NoError(t, err)

	_, err = p.Configure(configvalue.NewInteger(16))
	require.Error(t, err)
	_, err = p.Configure(configvalue.NewInteger(-1))
	require.Error(t, err)
}

func TestConfigurePresets(t *testing.T) {
	fs := fakeCPUs(t, 2, 0, 1)
	p := NewWithFS(fs)

	tk, err := p.Configure(configvalue.NewString("power"))
	require.NoError(t, err)
	require.NoError(t, tk.Apply(context.Background(), &recorder{}))

	assert.Equal(t, "15", readBias(t, fs, "cpu0"))
	assert.Equal(t, "15", readBias(t, fs, "cpu1"))
}

func TestConfigureUnknownPreset(t *testing.T) {
	p := NewWithFS(fakeCPUs(t, 1, 0))
	_, err := p.Configure(configvalue.NewString("turbo-mega"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bias preset")
	assert.Contains(t, err.Error(), "balance-performance", "the error lists the accepted presets")
}

func TestConfigureSkip(t *testing.T) {
	p := NewWithFS(fakeCPUs(t, 1, 0))
	tk, err := p.Configure(configvalue.NewString("skip"))
	require.NoError(t, err)
	assert.True(t, plugin.IsSkipTask(tk))
}

func TestConfigureRejectsOtherKinds(t *testing.T) {
	p := NewWithFS(fakeCPUs(t, 1, 0))
	_, err := p.Configure(configvalue.NewBoolean(true))
	require.Error(t, err)
}

func TestInteract(t *testing.T) {
	p := NewWithFS(fakeCPUs(t, 1, 0))

	p.in = strings.NewReader("balance-power\n")
	v, err := p.Interact(context.Background())
	require.NoError(t, err)
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "balance-power", s)

	p.in = strings.NewReader("7\n")
	v, err = p.Interact(context.Background())
	require.NoError(t, err)
	i, ok := v.AsInteger()
	require.True(t, ok)
	assert.Equal(t, int64(7), i)

	// The answer feeds straight back into Configure.
	_, err = p.Configure(v)
	require.NoError(t, err)
}

func TestApplyWarnsOnUnsupportedCPUs(t *testing.T) {
	fs := fakeCPUs(t, 3, 0, 2)
	p := NewWithFS(fs)

	tk, err := p.Configure(configvalue.NewInteger(4))
	require.NoError(t, err)

	rec := &recorder{}
	require.NoError(t, tk.Apply(context.Background(), rec))

	assert.Equal(t, "4", readBias(t, fs, "cpu0"))
	assert.Equal(t, "4", readBias(t, fs, "cpu2"))
	require.Len(t, rec.warnings, 1)
	assert.Contains(t, rec.warnings[0], "cpu1")
}

func TestApplyFailsWhenNoCPUSupportsEPB(t *testing.T) {
	p := NewWithFS(fakeCPUs(t, 2))

	tk, err := p.Configure(configvalue.NewInteger(4))
	require.NoError(t, err)

	err = tk.Apply(context.Background(), &recorder{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestApplyFailsWithoutCPUTree(t *testing.T) {
	p := NewWithFS(sysfs.New(t.TempDir()))

	tk, err := p.Configure(configvalue.NewInteger(4))
	require.NoError(t, err)
	require.Error(t, tk.Apply(context.Background(), &recorder{}))
}
