// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package loader performs the explicit plugin registration step: it builds a
// registry from the built-in plugins plus any Lua plugin scripts found in
// the plugin directory, and hands the populated registry to the caller.
// There is no ambient global registry; whoever applies a mode owns one.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/powermodes/powermodes/internal/luaplugin"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/plugins/command"
	"github.com/powermodes/powermodes/internal/plugins/intelepb"
	"github.com/powermodes/powermodes/internal/plugins/intelpstate"
	"github.com/powermodes/powermodes/internal/plugins/nmiwatchdog"
	"github.com/powermodes/powermodes/internal/registry"
)

// BuildRegistry registers every built-in plugin and, when luaDir is
// non-empty, every loadable Lua script in it. A script that fails to load or
// collides with an existing identifier is skipped with a warning; user
// plugins must not take the whole tool down.
func BuildRegistry(luaDir string) (*registry.Registry, error) {
	reg := registry.New()

	for _, p := range []plugin.Plugin{
		command.New(),
		nmiwatchdog.New(),
		intelepb.New(),
		intelpstate.New(),
	} {
		if err := reg.Register(p); err != nil {
			return nil, fmt.Errorf("failed to register built-in plugin %s: %w", p.Name(), err)
		}
	}

	if luaDir != "" {
		if err := loadLuaPlugins(reg, luaDir); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func loadLuaPlugins(reg *registry.Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("plugin directory %s does not exist, skipping", dir)
			return nil
		}
		return fmt.Errorf("failed to list plugin directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		p, err := luaplugin.Load(path)
		if err != nil {
			log.Warnf("ignoring plugin %s: %v", entry.Name(), err)
			continue
		}
		if err := reg.Register(p); err != nil {
			log.Warnf("ignoring plugin %s: %v", entry.Name(), err)
			continue
		}
		log.Debugf("loaded Lua plugin %s (version %s) from %s", p.Name(), p.Version(), path)
	}
	return nil
}
