// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package executor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShellCommand(t *testing.T) {
	result, err := Run(context.Background(), Command{Shell: "true"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRunShellExitStatus(t *testing.T) {
	result, err := Run(context.Background(), Command{Shell: "exit 3"})
	require.NoError(t, err, "a non-zero exit status is not an executor error")
	assert.Equal(t, 3, result.ExitCode)
}

func TestRunArgvDoesNotInvokeShell(t *testing.T) {
	// The pipe character is an inert argument here; a shell would try to
	// spawn a pipeline and fail on the missing command.
	result, err := Run(context.Background(), Command{Argv: []string{"echo", "a", "|", "nosuchcmd"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRunCapturesSuppressedStderr(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Shell:      "echo oops >&2; exit 1",
		ShowStderr: false,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, "oops", strings.TrimSpace(string(result.Stderr)))
}

func TestRunSurfacedStderrIsNotCaptured(t *testing.T) {
	result, err := Run(context.Background(), Command{
		Shell:      "exit 0",
		ShowStderr: true,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Stderr)
}

func TestRunSpawnFailure(t *testing.T) {
	_, err := Run(context.Background(), Command{Argv: []string{"/nonexistent/binary-xyz"}})
	require.Error(t, err)
}

func TestRunEmptyCommand(t *testing.T) {
	_, err := Run(context.Background(), Command{})
	require.Error(t, err)
}

// TestRunDetachedStdinNeverBlocks runs a program that reads a line from
// stdin. With AllowStdin unset the child sees end-of-file immediately and
// must terminate promptly instead of hanging.
func TestRunDetachedStdinNeverBlocks(t *testing.T) {
	done := make(chan struct{})
	var result Result
	var err error

	go func() {
		result, err = Run(context.Background(), Command{Shell: "read line"})
		close(done)
	}()

	select {
	case <-done:
		require.NoError(t, err)
		// read hits EOF and exits non-zero; the exact status is the
		// shell's business, not ours.
		assert.NotEqual(t, 0, result.ExitCode)
	case <-time.After(5 * time.Second):
		t.Fatal("command with detached stdin did not terminate")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := Run(ctx, Command{Shell: "sleep 30"})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 5*time.Second)
	// The kill surfaces as a non-zero exit, not a spawn error.
	if err == nil {
		assert.NotEqual(t, 0, result.ExitCode)
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "echo hi", Command{Shell: "echo hi"}.Describe())
	assert.Equal(t, "[echo hi]", Command{Argv: []string{"echo", "hi"}}.Describe())
}
