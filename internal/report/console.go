// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package report

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

// Format selects how the final summary is rendered.
type Format string

const (
	// FormatText renders the summary through the logger, one line per failure.
	FormatText Format = "text"
	// FormatYAML renders the full outcome list as a YAML document on stdout,
	// for scripting around the CLI.
	FormatYAML Format = "yaml"
)

// ConsoleReporter renders warnings and failures through logrus and the final
// summary either as log lines or as YAML. The zero value is not usable; use
// NewConsoleReporter.
type ConsoleReporter struct {
	format Format
	out    io.Writer
}

// NewConsoleReporter returns a reporter rendering to the process logger and,
// for YAML summaries, to stdout.
func NewConsoleReporter(format Format) *ConsoleReporter {
	if format == "" {
		format = FormatText
	}
	return &ConsoleReporter{format: format, out: os.Stdout}
}

// Warning implements Reporter.
func (r *ConsoleReporter) Warning(plugin, detail string) {
	log.Warnf("[%s] %s", plugin, detail)
}

// Failure implements Reporter.
func (r *ConsoleReporter) Failure(plugin, detail string) {
	log.Errorf("[%s] %s", plugin, detail)
}

// Summary implements Reporter. Per-plugin failures have already been streamed
// through Failure as they were recorded; the summary distinguishes partial
// success (some plugins applied, others failed) from total failure and from
// total success.
func (r *ConsoleReporter) Summary(outcome ModeOutcome) {
	if r.format == FormatYAML {
		r.summaryYAML(outcome)
		return
	}

	failures := outcome.Failures()
	switch {
	case outcome.Success():
		log.Infof("mode %q applied successfully (%d plugins)", outcome.Mode, len(outcome.Outcomes))
	case len(failures) == len(outcome.Outcomes):
		log.Errorf("mode %q failed: no plugin applied", outcome.Mode)
	default:
		log.Errorf("mode %q partially applied: %d of %d plugins failed",
			outcome.Mode, len(failures), len(outcome.Outcomes))
	}
}

func (r *ConsoleReporter) summaryYAML(outcome ModeOutcome) {
	type yamlOutcome struct {
		Plugin string `yaml:"plugin"`
		Status string `yaml:"status"`
		Detail string `yaml:"detail,omitempty"`
	}
	doc := struct {
		Mode     string        `yaml:"mode"`
		RunID    string        `yaml:"run-id"`
		Success  bool          `yaml:"success"`
		Outcomes []yamlOutcome `yaml:"outcomes"`
	}{
		Mode:    outcome.Mode,
		RunID:   outcome.RunID,
		Success: outcome.Success(),
	}
	for _, o := range outcome.Outcomes {
		doc.Outcomes = append(doc.Outcomes, yamlOutcome{
			Plugin: o.Plugin,
			Status: o.Status.String(),
			Detail: o.Detail,
		})
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		log.Errorf("failed to render summary: %v", err)
		return
	}
	fmt.Fprint(r.out, string(data))
}
