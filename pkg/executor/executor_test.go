// SPDX-License-Identifier: Apache-2.0

package executor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscoabsampaio/swellow/pkg/engine/fake"
	"github.com/franciscoabsampaio/swellow/pkg/executor"
	"github.com/franciscoabsampaio/swellow/pkg/records"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

func plan(mode swmigration.Mode, steps ...swmigration.PlanStep) *swmigration.Plan {
	return &swmigration.Plan{Mode: mode, Direction: swmigration.DirectionUp, Steps: steps}
}

func step(v int64, sql string) swmigration.PlanStep {
	return swmigration.PlanStep{VersionID: v, Slug: "s", Direction: swmigration.DirectionUp, SQL: sql, Checksum: "c", SupportsDryRun: true}
}

func TestRunPlanOnlyNeverTouchesTheAdapter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := fake.New()
	s, err := a.Connect(ctx, "")
	require.NoError(t, err)

	ex := executor.Executor{Adapter: a, Records: records.Store{Adapter: a}}
	_, err = ex.Run(ctx, s, plan(swmigration.ModePlanOnly, step(1, "SELECT 1")))
	require.NoError(t, err)

	rows, err := a.FetchRecords(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunExecuteCommitsApplyRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := fake.New()
	s, err := a.Connect(ctx, "")
	require.NoError(t, err)

	ex := executor.Executor{Adapter: a, Records: records.Store{Adapter: a}}
	result, err := ex.Run(ctx, s, plan(swmigration.ModeExecute, step(1, "CREATE TABLE t(id INT)")))
	require.NoError(t, err)
	assert.Len(t, result.Applied, 1)

	current, err := records.Store{Adapter: a}.CurrentVersion(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
}

func TestRunDryRunLeavesRecordsUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := fake.New()
	s, err := a.Connect(ctx, "")
	require.NoError(t, err)

	ex := executor.Executor{Adapter: a, Records: records.Store{Adapter: a}}
	_, err = ex.Run(ctx, s, plan(swmigration.ModeDryRun, step(1, "CREATE TABLE t(id INT)")))
	require.NoError(t, err)

	rows, err := a.FetchRecords(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunDryRunFailsOnEngineWithoutDryRunSupport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := fake.New()
	a.DryRun = false
	s, err := a.Connect(ctx, "")
	require.NoError(t, err)

	ex := executor.Executor{Adapter: a, Records: records.Store{Adapter: a}}
	_, err = ex.Run(ctx, s, plan(swmigration.ModeDryRun, step(1, "CREATE TABLE t(id INT)")))
	require.Error(t, err)
	var target swerrs.DryRunUnsupportedError
	assert.ErrorAs(t, err, &target)
}

func TestRunExecuteRecordsFailedStatusOnExecuteError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := fake.New()
	a.ExecuteFailOnSubstr = "BOOM"
	s, err := a.Connect(ctx, "")
	require.NoError(t, err)

	ex := executor.Executor{Adapter: a, Records: records.Store{Adapter: a}}
	_, err = ex.Run(ctx, s, plan(swmigration.ModeExecute, step(1, "BOOM")))
	require.Error(t, err)
	var target swerrs.ExecutionFailedError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, int64(1), target.VersionID)

	store := records.Store{Adapter: a}
	rec, err := store.ByVersion(ctx, s, 1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, swmigration.StatusFailed, rec.Status)
}

func TestRunExecuteStopsAtFirstFailureLeavingLaterStepsUnapplied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := fake.New()
	a.ExecuteFailOnSubstr = "BOOM"
	s, err := a.Connect(ctx, "")
	require.NoError(t, err)

	ex := executor.Executor{Adapter: a, Records: records.Store{Adapter: a}}
	_, err = ex.Run(ctx, s, plan(swmigration.ModeExecute,
		step(1, "CREATE TABLE t(id INT)"),
		step(2, "BOOM"),
		step(3, "CREATE TABLE u(id INT)"),
	))
	require.Error(t, err)

	store := records.Store{Adapter: a}
	rec3, err := store.ByVersion(ctx, s, 3)
	require.NoError(t, err)
	assert.Nil(t, rec3)
}

func TestRunExecuteAcquiresAndReleasesLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := fake.New()
	s, err := a.Connect(ctx, "")
	require.NoError(t, err)

	ex := executor.Executor{Adapter: a, Records: records.Store{Adapter: a}}
	_, err = ex.Run(ctx, s, plan(swmigration.ModeExecute, step(1, "CREATE TABLE t(id INT)")))
	require.NoError(t, err)

	// The lock must have been released: a second acquisition succeeds.
	guard, err := a.AcquireLock(ctx, s, false)
	require.NoError(t, err)
	require.NoError(t, guard.Release(ctx))
}

func TestRunRespectsCancellationBetweenSteps(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := fake.New()
	s, err := a.Connect(context.Background(), "")
	require.NoError(t, err)

	ex := executor.Executor{Adapter: a, Records: records.Store{Adapter: a}}
	_, err = ex.Run(ctx, s, plan(swmigration.ModeExecute, step(1, "CREATE TABLE t(id INT)")))
	require.Error(t, err)
	var target swerrs.CancelledError
	assert.ErrorAs(t, err, &target)
}
