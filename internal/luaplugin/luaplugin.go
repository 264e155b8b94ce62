// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package luaplugin loads user-supplied plugins written in Lua and adapts
// them to the regular plugin contract.
//
// A plugin script declares its identity and two functions:
//
//	name = "my_plugin"
//	version = "0.1"
//
//	function configure(config)
//	    -- return nil to accept, or an error string to reject
//	end
//
//	function apply()
//	    -- perform the side effect; return nil or an error string
//	end
//
// Scripts run in a sandboxed interpreter: only the base, table, string, and
// math libraries are loaded, plus a powermodes.warn(msg) helper for
// reporting non-fatal conditions. The os and io libraries are deliberately
// absent; a script that needs to touch the system does so through its
// configuration contract, not ambient authority.
package luaplugin

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/report"
)

// Plugin is one compiled Lua script exposed through the plugin contract.
type Plugin struct {
	name    string
	version string
	path    string
	proto   *lua.FunctionProto
}

// Load compiles the script at path and validates that it declares a name and
// the configure/apply functions.
func Load(path string) (*Plugin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin script: %w", err)
	}

	chunk, err := parse.Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", path, err)
	}

	// Run once in a throwaway state to read the declared identity and
	// check the required functions.
	L := newState(nil)
	defer L.Close()
	if err := runProto(L, proto); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	name, ok := L.GetGlobal("name").(lua.LString)
	if !ok || name == "" {
		return nil, fmt.Errorf("%s does not declare a name", path)
	}
	version := "unknown"
	if v, ok := L.GetGlobal("version").(lua.LString); ok {
		version = string(v)
	}
	for _, fn := range []string{"configure", "apply"} {
		if _, ok := L.GetGlobal(fn).(*lua.LFunction); !ok {
			return nil, fmt.Errorf("%s does not define a %s function", path, fn)
		}
	}

	return &Plugin{name: string(name), version: version, path: path, proto: proto}, nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return p.name }

// Version implements plugin.Plugin.
func (p *Plugin) Version() string { return p.version }

// Configure implements plugin.Plugin. Each call runs the script in a fresh
// interpreter; state the script stashes in configure is visible to the
// matching apply and to nothing else.
func (p *Plugin) Configure(raw configvalue.Value) (plugin.Task, error) {
	t := &task{plugin: p}
	L := newState(t)

	if err := runProto(L, p.proto); err != nil {
		L.Close()
		return nil, fmt.Errorf("script failed to load: %w", err)
	}

	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("configure"),
		NRet:    1,
		Protect: true,
	}, toLua(L, raw))
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("configure failed: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	if ret != lua.LNil {
		detail := lua.LVAsString(ret)
		L.Close()
		return nil, fmt.Errorf("%s", detail)
	}

	t.state = L
	return t, nil
}

type task struct {
	plugin *Plugin
	state  *lua.LState

	mu  sync.Mutex
	rep report.Reporter
}

// Apply calls the script's apply function and closes the interpreter; a Task
// is applied at most once.
func (t *task) Apply(ctx context.Context, rep report.Reporter) error {
	t.mu.Lock()
	t.rep = rep
	t.mu.Unlock()

	L := t.state
	defer L.Close()
	L.SetContext(ctx)

	err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("apply"),
		NRet:    1,
		Protect: true,
	})
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	if ret != lua.LNil {
		return fmt.Errorf("%s", lua.LVAsString(ret))
	}
	return nil
}

// warn routes powermodes.warn(msg) to the reporter during apply and to the
// process log during configure-time execution.
func (t *task) warn(msg string) {
	t.mu.Lock()
	rep := t.rep
	t.mu.Unlock()

	if rep != nil {
		rep.Warning(t.plugin.name, msg)
		return
	}
	log.Warnf("[%s] %s", t.plugin.name, msg)
}

// newState builds a sandboxed interpreter. Only safe libraries are opened.
func newState(t *task) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Remove the escape hatches OpenBase brings in.
	for _, fn := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(fn, lua.LNil)
	}

	helpers := L.NewTable()
	L.SetField(helpers, "warn", L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(1)
		if t != nil {
			t.warn(msg)
		} else {
			log.Warn(msg)
		}
		return 0
	}))
	L.SetGlobal("powermodes", helpers)

	return L
}

func runProto(L *lua.LState, proto *lua.FunctionProto) error {
	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}

// toLua converts a configuration value into its Lua representation. Lists
// become 1-indexed tables; tables become string-keyed tables (Lua offers no
// ordered iteration, so a script wanting order uses a list of tables).
func toLua(L *lua.LState, v configvalue.Value) lua.LValue {
	switch v.Kind() {
	case configvalue.KindString:
		s, _ := v.AsString()
		return lua.LString(s)
	case configvalue.KindInteger:
		i, _ := v.AsInteger()
		return lua.LNumber(i)
	case configvalue.KindBoolean:
		b, _ := v.AsBoolean()
		return lua.LBool(b)
	case configvalue.KindList:
		elems, _ := v.AsList()
		tbl := L.NewTable()
		for _, elem := range elems {
			tbl.Append(toLua(L, elem))
		}
		return tbl
	case configvalue.KindTable:
		entries, _ := v.Entries()
		tbl := L.NewTable()
		for _, e := range entries {
			L.SetField(tbl, e.Key, toLua(L, e.Value))
		}
		return tbl
	default:
		return lua.LNil
	}
}
