// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package applier drives the application of one power mode: it resolves each
// plugin key of the mode's table against the registry, configures the
// resolved plugins, applies the resulting tasks, and aggregates the
// per-plugin outcomes into a single mode-level result.
//
// Failure isolation is the central policy here: an unknown key, a rejected
// configuration, or a failed apply is recorded for that one plugin and never
// aborts processing of its siblings. One faulty knob must not leave every
// other facet unconfigured.
package applier

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/plugin"
	"github.com/powermodes/powermodes/internal/registry"
	"github.com/powermodes/powermodes/internal/report"
)

// Mode is one named bundle of plugin configurations: an ordered table of
// plugin key to configuration value. Keys are unique, guaranteed by the
// table's own key-uniqueness invariant.
type Mode struct {
	Name    string
	Entries []configvalue.Entry
}

// ModeFromValue interprets one entry of the top-level configuration table as
// a mode. The value must be a table.
func ModeFromValue(name string, v configvalue.Value) (Mode, error) {
	entries, ok := v.Entries()
	if !ok {
		return Mode{}, fmt.Errorf("mode %q must be a table, got %s", name, v.Kind())
	}
	return Mode{Name: name, Entries: entries}, nil
}

// configured is one plugin that passed the configure phase and is waiting
// for its task to be applied.
type configured struct {
	index   int
	id      string
	task    plugin.Task
	skipped bool
}

// Apply drives one full mode application and returns the aggregated outcome.
//
// The configure phase walks the mode's entries in table order. The apply
// phase runs each configured task on its own goroutine: plugins model
// independent OS facets, so no ordering is promised across distinct plugins
// and none should be relied on. Any ordering a plugin needs internally (such
// as the command plugin's list order) is its own to enforce.
//
// Apply is invoked on a plugin only if its Configure succeeded; plugins whose
// configuration was rejected, and keys that did not resolve, are excluded
// from the apply phase.
func Apply(ctx context.Context, mode Mode, reg *registry.Registry, rep report.Reporter) report.ModeOutcome {
	runID := uuid.New().String()[:8]
	logger := log.WithFields(log.Fields{"mode": mode.Name, "run": runID})
	logger.Debugf("applying mode with %d entries", len(mode.Entries))

	outcomes := make([]report.Outcome, len(mode.Entries))
	var ready []configured

	for i, entry := range mode.Entries {
		outcomes[i].Plugin = entry.Key

		p, ok := reg.Resolve(entry.Key)
		if !ok {
			detail := "unknown plugin"
			outcomes[i].Status = report.StatusUnknownPlugin
			outcomes[i].Detail = detail
			rep.Failure(entry.Key, detail)
			continue
		}

		task, err := p.Configure(entry.Value)
		if err != nil {
			outcomes[i].Status = report.StatusConfigError
			outcomes[i].Detail = err.Error()
			rep.Failure(entry.Key, err.Error())
			continue
		}

		ready = append(ready, configured{
			index:   i,
			id:      entry.Key,
			task:    task,
			skipped: plugin.IsSkipTask(task),
		})
	}

	var wg sync.WaitGroup
	for _, c := range ready {
		wg.Add(1)
		go func(c configured) {
			defer wg.Done()

			// Each goroutine writes only its own outcome slot.
			if err := c.task.Apply(ctx, rep); err != nil {
				outcomes[c.index].Status = report.StatusApplyError
				outcomes[c.index].Detail = err.Error()
				rep.Failure(c.id, err.Error())
				return
			}
			if c.skipped {
				outcomes[c.index].Status = report.StatusSkipped
				logger.Debugf("plugin %s skipped", c.id)
				return
			}
			outcomes[c.index].Status = report.StatusSuccess
			logger.Debugf("plugin %s applied", c.id)
		}(c)
	}
	wg.Wait()

	result := report.ModeOutcome{Mode: mode.Name, RunID: runID, Outcomes: outcomes}
	rep.Summary(result)
	return result
}

// Validate runs only the configure phase of every entry, reporting failures
// without side effects. It returns true when every entry resolved and
// configured cleanly.
func Validate(mode Mode, reg *registry.Registry, rep report.Reporter) bool {
	ok := true
	for _, entry := range mode.Entries {
		p, found := reg.Resolve(entry.Key)
		if !found {
			rep.Failure(entry.Key, "unknown plugin")
			ok = false
			continue
		}
		if _, err := p.Configure(entry.Value); err != nil {
			rep.Failure(entry.Key, err.Error())
			ok = false
		}
	}
	return ok
}
