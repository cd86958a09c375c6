// SPDX-License-Identifier: Apache-2.0

package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscoabsampaio/swellow/pkg/planner"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

func strPtr(s string) *string { return &s }

func migration(version int64, slug, up, down string) swmigration.LocalMigration {
	m := swmigration.LocalMigration{VersionID: version, Slug: slug}
	if up != "" {
		m.UpSQL = strPtr(up)
		m.UpChecksum = "up-" + slug
	}
	if down != "" {
		m.DownSQL = strPtr(down)
		m.DownChecksum = "down-" + slug
	}
	return m
}

func TestPlanUpFromCleanDatabaseAppliesAllInOrder(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{
		migration(2, "second", "CREATE TABLE b(id INT);", "DROP TABLE b;"),
		migration(1, "first", "CREATE TABLE a(id INT);", "DROP TABLE a;"),
	}

	plan, err := planner.Plan(local, nil, planner.Options{Direction: swmigration.DirectionUp})
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, int64(1), plan.Steps[0].VersionID)
	assert.Equal(t, int64(2), plan.Steps[1].VersionID)
	assert.Equal(t, int64(2), plan.ToVersion)
}

func TestPlanUpIsNoOpWhenEverythingActive(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{migration(1, "first", "CREATE TABLE a(id INT);", "DROP TABLE a;")}
	recs := []swmigration.RecordedMigration{
		{VersionID: 1, Status: swmigration.StatusApplied, Checksum: "up-first"},
	}

	plan, err := planner.Plan(local, recs, planner.Options{Direction: swmigration.DirectionUp})
	require.NoError(t, err)
	assert.True(t, plan.NoOp())
}

func TestPlanDetectsTamperedChecksum(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{migration(1, "first", "CREATE TABLE a(id INT);", "DROP TABLE a;")}
	recs := []swmigration.RecordedMigration{
		{VersionID: 1, Status: swmigration.StatusApplied, Checksum: "stale-checksum"},
	}

	_, err := planner.Plan(local, recs, planner.Options{Direction: swmigration.DirectionUp})
	require.Error(t, err)
	var target swerrs.ChecksumMismatchError
	assert.ErrorAs(t, err, &target)
}

func TestPlanRejectsMissingUpScript(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{migration(1, "first", "", "DROP TABLE a;")}

	_, err := planner.Plan(local, nil, planner.Options{Direction: swmigration.DirectionUp})
	require.Error(t, err)
	var target swerrs.MissingUpError
	assert.ErrorAs(t, err, &target)
}

func TestPlanDownRequiresDownScript(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{migration(1, "first", "CREATE TABLE a(id INT);", "")}
	recs := []swmigration.RecordedMigration{
		{VersionID: 1, Status: swmigration.StatusApplied, Checksum: "up-first"},
	}

	_, err := planner.Plan(local, recs, planner.Options{Direction: swmigration.DirectionDown})
	require.Error(t, err)
	var target swerrs.MissingDownError
	assert.ErrorAs(t, err, &target)
}

func TestPlanDownOrdersDescending(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{
		migration(1, "first", "CREATE TABLE a(id INT);", "DROP TABLE a;"),
		migration(2, "second", "CREATE TABLE b(id INT);", "DROP TABLE b;"),
	}
	recs := []swmigration.RecordedMigration{
		{VersionID: 1, Status: swmigration.StatusApplied, Checksum: "up-first"},
		{VersionID: 2, Status: swmigration.StatusApplied, Checksum: "up-second"},
	}

	target := int64(0)
	plan, err := planner.Plan(local, recs, planner.Options{Direction: swmigration.DirectionDown, TargetVersion: &target})
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, int64(2), plan.Steps[0].VersionID)
	assert.Equal(t, int64(1), plan.Steps[1].VersionID)
}

func TestPlanBlocksOnFailedRecordWithoutRetryFlag(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{
		migration(1, "first", "CREATE TABLE a(id INT);", "DROP TABLE a;"),
	}
	recs := []swmigration.RecordedMigration{
		{VersionID: 1, Status: swmigration.StatusFailed, Checksum: "up-first"},
	}

	_, err := planner.Plan(local, recs, planner.Options{Direction: swmigration.DirectionUp})
	require.Error(t, err)
	var target swerrs.FailedRecordExistsError
	assert.ErrorAs(t, err, &target)
}

func TestPlanAllowsRetryFailedWithFlag(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{
		migration(1, "first", "CREATE TABLE a(id INT);", "DROP TABLE a;"),
	}
	recs := []swmigration.RecordedMigration{
		{VersionID: 1, Status: swmigration.StatusFailed, Checksum: "up-first"},
	}

	plan, err := planner.Plan(local, recs, planner.Options{Direction: swmigration.DirectionUp, RetryFailed: true})
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
}

func TestPlanRejectsUnknownTargetVersion(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{migration(1, "first", "CREATE TABLE a(id INT);", "DROP TABLE a;")}
	target := int64(99)

	_, err := planner.Plan(local, nil, planner.Options{Direction: swmigration.DirectionUp, TargetVersion: &target})
	require.Error(t, err)
	var wantErr swerrs.TargetNotFoundError
	assert.ErrorAs(t, err, &wantErr)
}

func TestPlanWarnsOnBreakingChange(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{migration(1, "drop_it", "DROP TABLE legacy;", "")}

	plan, err := planner.Plan(local, nil, planner.Options{Direction: swmigration.DirectionUp})
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.NotEmpty(t, plan.Steps[0].BreakingWarning)
	assert.NotEmpty(t, plan.Diagnostics)
}

func TestPlanTreatsRolledBackVersionAsEligibleForUp(t *testing.T) {
	t.Parallel()

	local := []swmigration.LocalMigration{migration(1, "first", "CREATE TABLE a(id INT);", "DROP TABLE a;")}
	recs := []swmigration.RecordedMigration{
		{VersionID: 1, Status: swmigration.StatusRolledBack, Checksum: "up-first"},
	}

	plan, err := planner.Plan(local, recs, planner.Options{Direction: swmigration.DirectionUp})
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, int64(1), plan.Steps[0].VersionID)
}
