// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sysfs wraps the small set of filesystem operations the built-in
// plugins perform against /proc and /sys. The tree root is injectable so
// tests can point plugins at a temporary directory instead of the live
// kernel interfaces.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FS is a view of the kernel's special filesystems under a fixed root.
type FS struct {
	root string
}

// New returns an FS rooted at root. Plugins in production use System.
func New(root string) *FS { return &FS{root: root} }

// System is the live kernel tree.
var System = New("/")

// Path joins elem under the FS root.
func (f *FS) Path(elem ...string) string {
	return filepath.Join(append([]string{f.root}, elem...)...)
}

// ReadAttr reads a sysfs/procfs attribute file and returns its contents with
// trailing whitespace trimmed.
func (f *FS) ReadAttr(path string) (string, error) {
	data, err := os.ReadFile(f.Path(path))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return strings.TrimRight(string(data), "\n\t "), nil
}

// WriteAttr writes value to a sysfs/procfs attribute file, appending the
// newline the kernel expects.
func (f *FS) WriteAttr(path, value string) error {
	if err := os.WriteFile(f.Path(path), []byte(value+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists under the root.
func (f *FS) Exists(path string) bool {
	_, err := os.Stat(f.Path(path))
	return err == nil
}

// CPUs lists the per-CPU sysfs directory names (cpu0, cpu1, ...) in numeric
// order.
func (f *FS) CPUs() ([]string, error) {
	entries, err := os.ReadDir(f.Path("sys/devices/system/cpu"))
	if err != nil {
		return nil, fmt.Errorf("failed to list CPUs: %w", err)
	}

	var cpus []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "cpu") {
			continue
		}
		if _, err := strconv.Atoi(name[3:]); err != nil {
			continue
		}
		cpus = append(cpus, name)
	}
	sort.Slice(cpus, func(i, j int) bool {
		a, _ := strconv.Atoi(cpus[i][3:])
		b, _ := strconv.Atoi(cpus[j][3:])
		return a < b
	})
	return cpus, nil
}

// CPUFlags returns the feature flag set of the first processor listed in
// /proc/cpuinfo.
func (f *FS) CPUFlags() (map[string]bool, error) {
	data, err := os.ReadFile(f.Path("proc/cpuinfo"))
	if err != nil {
		return nil, fmt.Errorf("failed to read cpuinfo: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, rest, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(key) != "flags" {
			continue
		}
		flags := make(map[string]bool)
		for _, flag := range strings.Fields(rest) {
			flags[flag] = true
		}
		return flags, nil
	}
	return nil, fmt.Errorf("no flags line in cpuinfo")
}
