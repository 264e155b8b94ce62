// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package registry maps plugin identifiers to loaded plugin instances.
//
// A Registry is populated once at startup by the loader and is read-only
// afterwards; concurrent reads during a mode application are safe. The
// registry holds no apply-time state of its own.
package registry

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/powermodes/powermodes/internal/plugin"
)

// identifierPattern restricts plugin ids to lowercase letters, digits (not
// leading), underscores, and hyphens. Hyphens appear in the built-in ids
// (intel-epb, nmi-watchdog).
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)

// ValidIdentifier reports whether id may be used as a plugin key.
func ValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

// Registry is the lookup from plugin identifier to plugin instance.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]plugin.Plugin
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{plugins: make(map[string]plugin.Plugin)}
}

// Register binds p under its own Name. It fails for identifiers that violate
// the naming pattern and for identifiers that are already registered.
func (r *Registry) Register(p plugin.Plugin) error {
	id := p.Name()
	if !ValidIdentifier(id) {
		return fmt.Errorf("invalid plugin identifier %q", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[id]; exists {
		return fmt.Errorf("plugin %q already registered", id)
	}
	r.plugins[id] = p
	return nil
}

// Resolve looks up a plugin by exact, case-sensitive identifier.
func (r *Registry) Resolve(id string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// List returns the registered identifiers in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
