// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package executor runs a single external command with explicit stdio wiring
// and reports its exit status.
//
// Commands run with the privileges of the invoking process; powermodes is
// expected to run as root and provides no mechanism to drop privileges per
// command. No timeout is imposed beyond ctx cancellation.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Command describes one external program invocation.
//
// Exactly one of Shell and Argv is set. A Shell command is handed to
// "sh -c" and parsed by the shell's normal rules; no extra escaping is
// performed. An Argv command execs the first element directly with the rest
// as its argument vector, so shell metacharacters are inert.
type Command struct {
	Shell string
	Argv  []string

	// AllowStdin connects the child to the invoking process's stdin. When
	// false (the default), the child's stdin is /dev/null so it can never
	// block waiting for interactive input.
	AllowStdin bool
	// ShowStdout surfaces the child's stdout on the invoking process's
	// stdout; when false the output is discarded.
	ShowStdout bool
	// ShowStderr surfaces the child's stderr; when false the output is
	// captured and returned in Result.Stderr for diagnostics.
	ShowStderr bool
}

// Describe returns a short human-readable rendering of the command line.
func (c Command) Describe() string {
	if c.Shell != "" {
		return c.Shell
	}
	return fmt.Sprintf("%v", c.Argv)
}

// Result is the outcome of a command that was successfully spawned.
type Result struct {
	// ExitCode is the child's exit status; zero means success.
	ExitCode int
	// Stderr holds the child's captured stderr when ShowStderr was false,
	// nil otherwise. Suppressing a stream never discards the exit status.
	Stderr []byte
}

// Run spawns the command and waits for it to terminate. A non-zero exit
// status is not an error: it is reported through Result.ExitCode. The
// returned error is non-nil only for infrastructural failures, such as the
// executable not being found or the process failing to spawn at all.
func Run(ctx context.Context, c Command) (Result, error) {
	var cmd *exec.Cmd
	switch {
	case c.Shell != "":
		cmd = exec.CommandContext(ctx, "sh", "-c", c.Shell)
	case len(c.Argv) > 0:
		cmd = exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	default:
		return Result{}, errors.New("empty command")
	}

	// A nil stdio stream connects the child to /dev/null.
	if c.AllowStdin {
		cmd.Stdin = os.Stdin
	}
	if c.ShowStdout {
		cmd.Stdout = os.Stdout
	}

	var stderr bytes.Buffer
	if c.ShowStderr {
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	if err == nil {
		return Result{ExitCode: 0, Stderr: captured(c, &stderr)}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{ExitCode: exitErr.ExitCode(), Stderr: captured(c, &stderr)}, nil
	}
	return Result{}, fmt.Errorf("failed to run %s: %w", c.Describe(), err)
}

func captured(c Command, buf *bytes.Buffer) []byte {
	if c.ShowStderr {
		return nil
	}
	return buf.Bytes()
}
