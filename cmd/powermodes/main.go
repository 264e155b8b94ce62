// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package main provides the powermodes command line tool. It loads a YAML
// configuration of named power modes, builds the plugin registry, and
// applies, validates, or lists modes. Applying a mode writes kernel
// interfaces and runs commands, so the tool is expected to run as root.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/powermodes/powermodes/internal/applier"
	"github.com/powermodes/powermodes/internal/buildinfo"
	"github.com/powermodes/powermodes/internal/configload"
	"github.com/powermodes/powermodes/internal/hooks"
	"github.com/powermodes/powermodes/internal/loader"
	"github.com/powermodes/powermodes/internal/logging"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/registry"
	"github.com/powermodes/powermodes/internal/report"
	"github.com/powermodes/powermodes/internal/watcher"
)

const (
	defaultConfigPath = "/etc/powermodes.yaml"
	defaultHooksDir   = "/etc/powermodes/hooks.d"
)

func main() {
	// A .env next to the binary may set POWERMODES_* variables.
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", envOr("POWERMODES_CONFIG", defaultConfigPath), "path to the mode configuration file")
		applyMode  = flag.String("apply", "", "apply the named mode")
		validate   = flag.Bool("validate", false, "validate every mode in the configuration without applying")
		list       = flag.Bool("list", false, "list configured modes and loaded plugins")
		interact   = flag.String("interact", "", "interactively configure and apply the named plugin")
		pluginDir  = flag.String("plugin-dir", envOr("POWERMODES_PLUGIN_DIR", ""), "directory of Lua plugin scripts")
		hooksDir   = flag.String("hooks-dir", envOr("POWERMODES_HOOKS_DIR", defaultHooksDir), "directory of hook definitions")
		watch      = flag.Bool("watch", false, "keep running and re-apply the mode when the configuration changes")
		reportFmt  = flag.String("report", "text", "summary format: text or yaml")
		debug      = flag.Bool("debug", false, "enable debug logging")
		logFile    = flag.String("log-file", "", "write logs to a rotating file instead of stderr")
		version    = flag.Bool("version", false, "print version information")
	)
	flag.Parse()

	logging.Setup(*debug)
	if *logFile != "" {
		logging.SetupFileOutput(*logFile)
	}

	if *version {
		fmt.Printf("powermodes %s (%s, built %s)\n",
			buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)
		return
	}

	reg, err := loader.BuildRegistry(*pluginDir)
	if err != nil {
		log.Fatalf("failed to load plugins: %v", err)
	}

	switch {
	case *list:
		runList(*configPath, reg)

	case *validate:
		if !runValidate(*configPath, reg, report.Format(*reportFmt)) {
			os.Exit(1)
		}

	case *interact != "":
		if !runInteract(*interact, reg, report.Format(*reportFmt)) {
			os.Exit(1)
		}

	case *applyMode != "":
		if !runApply(*configPath, *applyMode, *hooksDir, reg, report.Format(*reportFmt), *watch) {
			os.Exit(1)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runList(configPath string, reg *registry.Registry) {
	fmt.Println("Plugins:")
	for _, id := range reg.List() {
		p, _ := reg.Resolve(id)
		fmt.Printf("  %s (version %s)\n", id, p.Version())
	}

	cfg, err := configload.LoadFile(configPath)
	if err != nil {
		log.Warnf("cannot list modes: %v", err)
		return
	}
	fmt.Println("Modes:")
	for _, name := range cfg.Modes() {
		fmt.Printf("  %s\n", name)
	}
}

func runValidate(configPath string, reg *registry.Registry, format report.Format) bool {
	cfg, err := configload.LoadFile(configPath)
	if err != nil {
		log.Errorf("%v", err)
		return false
	}

	rep := report.NewConsoleReporter(format)
	ok := true
	for _, name := range cfg.Modes() {
		value, _ := cfg.Mode(name)
		mode, err := applier.ModeFromValue(name, value)
		if err != nil {
			log.Errorf("%v", err)
			ok = false
			continue
		}
		if applier.Validate(mode, reg, rep) {
			log.Infof("mode %q is valid", name)
		} else {
			log.Errorf("mode %q is invalid", name)
			ok = false
		}
	}
	return ok
}

func runApply(configPath, modeName, hooksDir string, reg *registry.Registry, format report.Format, watch bool) bool {
	if os.Geteuid() != 0 {
		log.Warn("not running as root; most plugins will fail to apply their settings")
	}

	bus := hooks.NewEventBus()
	manager := hooks.NewManager(hooksDir, bus)
	if err := manager.Load(); err != nil {
		log.Warnf("failed to load hooks: %v", err)
	}
	defer manager.Close()

	applyOnce := func(ctx context.Context) bool {
		cfg, err := configload.LoadFile(configPath)
		if err != nil {
			log.Errorf("%v", err)
			return false
		}
		value, found := cfg.Mode(modeName)
		if !found {
			log.Errorf("mode %q not found in %s", modeName, configPath)
			return false
		}
		mode, err := applier.ModeFromValue(modeName, value)
		if err != nil {
			log.Errorf("%v", err)
			return false
		}

		rep := hooks.NewReporterBridge(report.NewConsoleReporter(format), bus, modeName)
		outcome := applier.Apply(ctx, mode, reg, rep)
		return outcome.Success()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ok := applyOnce(ctx)
	if !watch {
		manager.Wait()
		return ok
	}

	if err := manager.StartWatcher(); err != nil {
		log.Warnf("failed to watch hook directory: %v", err)
	}
	w, err := watcher.New(configPath, func() {
		log.Infof("configuration changed, re-applying mode %q", modeName)
		applyOnce(ctx)
	})
	if err != nil {
		log.Errorf("failed to watch configuration: %v", err)
		return false
	}
	log.Infof("watching %s; re-applying mode %q on change", configPath, modeName)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Errorf("watcher stopped: %v", err)
		return false
	}
	return true
}

func runInteract(pluginID string, reg *registry.Registry, format report.Format) bool {
	p, found := reg.Resolve(pluginID)
	if !found {
		log.Errorf("unknown plugin %q", pluginID)
		return false
	}
	interactive, ok := p.(plugin.Interactive)
	if !ok {
		log.Errorf("plugin %q does not support interactive configuration", pluginID)
		return false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	raw, err := interactive.Interact(ctx)
	if err != nil {
		log.Errorf("[%s] %v", pluginID, err)
		return false
	}
	task, err := p.Configure(raw)
	if err != nil {
		log.Errorf("[%s] %v", pluginID, err)
		return false
	}

	rep := report.NewConsoleReporter(format)
	if err := task.Apply(ctx, rep); err != nil {
		rep.Failure(pluginID, err.Error())
		return false
	}
	log.Infof("plugin %q applied", pluginID)
	return true
}
