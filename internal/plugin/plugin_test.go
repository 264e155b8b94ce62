// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powermodes/powermodes/internal/configvalue"
	"github.com/powermodes/powermodes/internal/report"
)

func TestIsSkip(t *testing.T) {
	assert.True(t, IsSkip(configvalue.NewString("skip")))
	assert.False(t, IsSkip(configvalue.NewString("Skip")))
	assert.False(t, IsSkip(configvalue.NewBoolean(false)))
	assert.False(t, IsSkip(configvalue.NewList(configvalue.NewString("skip"))))
}

func TestSkipTaskIsSharedNoOp(t *testing.T) {
	task := Skip()
	require.True(t, IsSkipTask(task))
	assert.True(t, IsSkipTask(Skip()))

	// Applying the skip task never fails and needs no reporter.
	require.NoError(t, task.Apply(context.Background(), nil))
}

func TestIsSkipTaskRejectsOtherTasks(t *testing.T) {
	assert.False(t, IsSkipTask(nil))
	assert.False(t, IsSkipTask(otherTask{}))
}

type otherTask struct{}

func (otherTask) Apply(context.Context, report.Reporter) error { return nil }
