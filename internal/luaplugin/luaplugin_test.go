// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package luaplugin

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/report"
)

type recorder struct {
	mu       sync.Mutex
	warnings []string
}

func (r *recorder) Warning(plugin, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, plugin+": "+detail)
}

func (r *recorder) Failure(string, string)     {}
func (r *recorder) Summary(report.ModeOutcome) {}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugin.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const goodScript = `
name = "lua_demo"
version = "0.2"

function configure(config)
    if type(config) ~= "table" then
        return "configuration must be a table"
    end
    level = config.level
    if type(level) ~= "number" then
        return "missing integer field \"level\""
    end
end

function apply()
    if level > 10 then
        powermodes.warn("level " .. level .. " is unusually high")
    end
end
`

func TestLoadReadsIdentity(t *testing.T) {
	p, err := Load(writeScript(t, goodScript))
	require.NoError(t, err)
	assert.Equal(t, "lua_demo", p.Name())
	assert.Equal(t, "0.2", p.Version())
}

func TestLoadRejections(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "syntax error",
			body:    "function configure(",
			wantErr: "failed to parse",
		},
		{
			name:    "missing name",
			body:    "function configure(c) end\nfunction apply() end",
			wantErr: "does not declare a name",
		},
		{
			name:    "missing apply",
			body:    "name = \"x\"\nfunction configure(c) end",
			wantErr: "does not define a apply function",
		},
		{
			name:    "missing configure",
			body:    "name = \"x\"\nfunction apply() end",
			wantErr: "does not define a configure function",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeScript(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.lua"))
	require.Error(t, err)
}

func TestConfigureAcceptAndReject(t *testing.T) {
	p, err := Load(writeScript(t, goodScript))
	require.NoError(t, err)

	_, err = p.Configure(configvalue.NewString("fast"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a table")

	_, err = p.Configure(configvalue.MustTable(
		configvalue.Entry{Key: "other", Value: configvalue.NewInteger(1)},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing integer field")

	tk, err := p.Configure(configvalue.MustTable(
		configvalue.Entry{Key: "level", Value: configvalue.NewInteger(3)},
	))
	require.NoError(t, err)
	require.NoError(t, tk.Apply(context.Background(), &recorder{}))
}

func TestApplySeesConfigureState(t *testing.T) {
	p, err := Load(writeScript(t, goodScript))
	require.NoError(t, err)

	tk, err := p.Configure(configvalue.MustTable(
		configvalue.Entry{Key: "level", Value: configvalue.NewInteger(42)},
	))
	require.NoError(t, err)

	rec := &recorder{}
	require.NoError(t, tk.Apply(context.Background(), rec))
	require.Len(t, rec.warnings, 1)
	assert.Equal(t, "lua_demo: level 42 is unusually high", rec.warnings[0])
}

func TestApplyErrorString(t *testing.T) {
	p, err := Load(writeScript(t, `
name = "failing"
function configure(config) end
function apply()
    return "the hardware said no"
end
`))
	require.NoError(t, err)

	tk, err := p.Configure(configvalue.NewBoolean(true))
	require.NoError(t, err)

	err = tk.Apply(context.Background(), &recorder{})
	require.Error(t, err)
	assert.Equal(t, "the hardware said no", err.Error())
}

func TestConfigureIsolatedBetweenCalls(t *testing.T) {
	p, err := Load(writeScript(t, `
name = "counting"
calls = 0
function configure(config)
    calls = calls + 1
    if calls > 1 then
        return "configure saw leftover state"
    end
end
function apply() end
`))
	require.NoError(t, err)

	// Each Configure runs in a fresh interpreter, so the counter resets.
	for i := 0; i < 3; i++ {
		tk, err := p.Configure(configvalue.NewBoolean(true))
		require.NoError(t, err)
		require.NoError(t, tk.Apply(context.Background(), &recorder{}))
	}
}

func TestSandboxBlocksEscapeHatches(t *testing.T) {
	p, err := Load(writeScript(t, `
name = "escape"
function configure(config)
    if os ~= nil or io ~= nil then
        return "os/io leaked into the sandbox"
    end
    if load ~= nil or dofile ~= nil or loadfile ~= nil then
        return "loaders leaked into the sandbox"
    end
end
function apply() end
`))
	require.NoError(t, err)

	_, err = p.Configure(configvalue.NewBoolean(true))
	require.NoError(t, err, "the sandbox must not expose os, io, or code loaders")
}

func TestToLuaConversion(t *testing.T) {
	p, err := Load(writeScript(t, `
name = "shapes"
function configure(config)
    if config.label ~= "hi" then return "bad string" end
    if config.count ~= 2 then return "bad integer" end
    if config.flag ~= true then return "bad boolean" end
    if #config.items ~= 2 or config.items[1] ~= "a" then return "bad list" end
    if config.nested.inner ~= 1 then return "bad nested table" end
end
function apply() end
`))
	require.NoError(t, err)

	raw := configvalue.MustTable(
		configvalue.Entry{Key: "label", Value: configvalue.NewString("hi")},
		configvalue.Entry{Key: "count", Value: configvalue.NewInteger(2)},
		configvalue.Entry{Key: "flag", Value: configvalue.NewBoolean(true)},
		configvalue.Entry{Key: "items", Value: configvalue.NewList(
			configvalue.NewString("a"), configvalue.NewString("b"),
		)},
		configvalue.Entry{Key: "nested", Value: configvalue.MustTable(
			configvalue.Entry{Key: "inner", Value: configvalue.NewInteger(1)},
		)},
	)
	_, err = p.Configure(raw)
	require.NoError(t, err)
}
