// SPDX-License-Identifier: Apache-2.0

// Package planner reconciles the on-disk migrations against the records
// table and produces an ordered, immutable Plan. Planning never touches the
// filesystem or the database beyond reading records; it is pure given its
// two inputs.
package planner

import (
	"sort"

	"github.com/franciscoabsampaio/swellow/pkg/sqlsplit"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

// Options configures a single planning call.
type Options struct {
	Direction      swmigration.Direction
	TargetVersion  *int64 // nil means the direction's default target
	RetryFailed    bool
	SupportsDryRun bool
}

// Plan reconciles local migrations against records and produces a Plan for
// the requested direction. It returns an error from pkg/swerrs without
// emitting a partial plan whenever any precondition fails.
func Plan(local []swmigration.LocalMigration, recs []swmigration.RecordedMigration, opts Options) (*swmigration.Plan, error) {
	byVersion := make(map[int64]swmigration.LocalMigration, len(local))
	for _, m := range local {
		byVersion[m.VersionID] = m
	}

	activeByVersion := make(map[int64]swmigration.RecordedMigration, len(recs))
	failedByVersion := make(map[int64]swmigration.RecordedMigration, len(recs))
	for _, r := range recs {
		if r.Active() {
			activeByVersion[r.VersionID] = r
		}
		if r.Status == swmigration.StatusFailed {
			failedByVersion[r.VersionID] = r
		}
	}

	current := currentVersion(activeByVersion)

	target, err := resolveTarget(opts, local, current)
	if err != nil {
		return nil, err
	}

	if err := tamperCheck(byVersion, activeByVersion); err != nil {
		return nil, err
	}

	if !opts.RetryFailed {
		for v := range failedByVersion {
			if stepInRange(opts.Direction, v, current, target) {
				return nil, swerrs.FailedRecordExistsError{VersionID: v}
			}
		}
	}

	var steps []swmigration.PlanStep
	switch opts.Direction {
	case swmigration.DirectionUp:
		steps, err = planUp(byVersion, activeByVersion, current, target)
	case swmigration.DirectionDown:
		steps, err = planDown(byVersion, activeByVersion, current, target)
	default:
		return nil, swerrs.ArgumentError{Reason: "direction must be \"up\" or \"down\""}
	}
	if err != nil {
		return nil, err
	}

	var diagnostics []string
	for i := range steps {
		steps[i].SupportsDryRun = opts.SupportsDryRun
		warnings := sqlsplit.BreakingWarnings(steps[i].SQL)
		steps[i].BreakingWarning = warnings
		for _, w := range warnings {
			diagnostics = append(diagnostics, w)
		}
	}

	return &swmigration.Plan{
		Mode:        swmigration.ModePlanOnly,
		Direction:   opts.Direction,
		FromVersion: current,
		ToVersion:   target,
		Steps:       steps,
		Diagnostics: diagnostics,
	}, nil
}

func currentVersion(active map[int64]swmigration.RecordedMigration) int64 {
	var max int64
	for v := range active {
		if v > max {
			max = v
		}
	}
	return max
}

func resolveTarget(opts Options, local []swmigration.LocalMigration, current int64) (int64, error) {
	if opts.TargetVersion != nil {
		target := *opts.TargetVersion
		if opts.Direction == swmigration.DirectionUp {
			if target == current {
				return target, nil
			}
			if target < current {
				return 0, swerrs.ArgumentError{Reason: "target version for up must not be lower than the current version"}
			}
			found := false
			for _, m := range local {
				if m.VersionID == target {
					found = true
					break
				}
			}
			if !found {
				return 0, swerrs.TargetNotFoundError{VersionID: target}
			}
			return target, nil
		}
		// down
		if target > current {
			return 0, swerrs.ArgumentError{Reason: "target version for down must not be higher than the current version"}
		}
		return target, nil
	}

	if opts.Direction == swmigration.DirectionUp {
		var max int64
		for _, m := range local {
			if m.VersionID > max {
				max = m.VersionID
			}
		}
		return max, nil
	}
	return 0, nil
}

func tamperCheck(byVersion map[int64]swmigration.LocalMigration, active map[int64]swmigration.RecordedMigration) error {
	for v, rec := range active {
		local, ok := byVersion[v]
		if !ok {
			continue
		}
		if rec.Checksum != local.UpChecksum {
			return swerrs.ChecksumMismatchError{
				VersionID:      v,
				RecordChecksum: rec.Checksum,
				LocalChecksum:  local.UpChecksum,
			}
		}
	}
	return nil
}

func stepInRange(dir swmigration.Direction, v, current, target int64) bool {
	if dir == swmigration.DirectionUp {
		return v > current && v <= target
	}
	return v > target && v <= current
}

func planUp(byVersion map[int64]swmigration.LocalMigration, active map[int64]swmigration.RecordedMigration, current, target int64) ([]swmigration.PlanStep, error) {
	var versions []int64
	for v, m := range byVersion {
		if v <= current || v > target {
			continue
		}
		if _, isActive := active[v]; isActive {
			continue
		}
		if !m.HasUp() {
			return nil, swerrs.MissingUpError{VersionID: v}
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })

	steps := make([]swmigration.PlanStep, 0, len(versions))
	for _, v := range versions {
		m := byVersion[v]
		steps = append(steps, swmigration.PlanStep{
			VersionID: v,
			Slug:      m.Slug,
			Direction: swmigration.DirectionUp,
			SQL:       *m.UpSQL,
			Checksum:  m.UpChecksum,
		})
	}
	return steps, nil
}

func planDown(byVersion map[int64]swmigration.LocalMigration, active map[int64]swmigration.RecordedMigration, current, target int64) ([]swmigration.PlanStep, error) {
	var versions []int64
	for v := range active {
		if !(v > target && v <= current) {
			continue
		}
		m, ok := byVersion[v]
		if !ok || !m.HasDown() {
			return nil, swerrs.MissingDownError{VersionID: v}
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })

	steps := make([]swmigration.PlanStep, 0, len(versions))
	for _, v := range versions {
		m := byVersion[v]
		steps = append(steps, swmigration.PlanStep{
			VersionID: v,
			Slug:      m.Slug,
			Direction: swmigration.DirectionDown,
			SQL:       *m.DownSQL,
			Checksum:  m.DownChecksum,
		})
	}
	return steps, nil
}
