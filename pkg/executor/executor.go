// SPDX-License-Identifier: Apache-2.0

// Package executor drives a planner.Plan through a database under lock,
// in plan_only, execute or dry_run mode, with crash-safe record
// bookkeeping between steps.
package executor

import (
	"context"

	"github.com/franciscoabsampaio/swellow/pkg/engine"
	"github.com/franciscoabsampaio/swellow/pkg/records"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

// Executor applies a Plan against an engine.Adapter.
type Executor struct {
	Adapter     engine.Adapter
	Records     records.Store
	IgnoreLocks bool
}

// Result is the outcome of one Run call.
type Result struct {
	Applied []swmigration.PlanStep
}

// Run drives plan against session in the mode carried by plan.Mode.
// plan_only performs no database writes at all, not even a lock
// acquisition; execute and dry_run both acquire the advisory lock for
// their duration.
func (e Executor) Run(ctx context.Context, session engine.Session, plan *swmigration.Plan) (Result, error) {
	if plan.Mode == swmigration.ModePlanOnly {
		return Result{}, nil
	}

	if plan.Mode == swmigration.ModeDryRun {
		if plan.Direction != swmigration.DirectionUp {
			return Result{}, swerrs.ArgumentError{Reason: "dry-run is only valid for the up direction"}
		}
		if !e.Adapter.SupportsDryRun() {
			return Result{}, swerrs.DryRunUnsupportedError{Engine: e.Adapter.Name()}
		}
	}

	guard, err := e.Adapter.AcquireLock(ctx, session, e.IgnoreLocks)
	if err != nil {
		return Result{}, err
	}
	defer guard.Release(ctx)

	result := Result{}

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return result, swerrs.CancelledError{Cause: err}
		}

		if err := e.runStep(ctx, session, plan.Mode, step); err != nil {
			return result, err
		}

		result.Applied = append(result.Applied, step)
	}

	return result, nil
}

func (e Executor) runStep(ctx context.Context, session engine.Session, mode swmigration.Mode, step swmigration.PlanStep) error {
	tx, err := e.Adapter.Begin(ctx, session)
	if err != nil {
		return err
	}

	if execErr := e.Adapter.Execute(ctx, tx, step.SQL); execErr != nil {
		// Roll back the failed DDL, then record the failure in a fresh
		// transaction so the FAILED row survives even though the step's
		// own transaction is discarded.
		_ = e.Adapter.Rollback(ctx, tx)
		return e.recordFailure(ctx, session, step, execErr)
	}

	status := statusForStep(mode, step.Direction)

	if recErr := e.Records.Upsert(ctx, tx, recordFor(step, status)); recErr != nil {
		_ = e.Adapter.Rollback(ctx, tx)
		return e.recordFailure(ctx, session, step, recErr)
	}

	if mode == swmigration.ModeDryRun {
		// Observationally read-only: the executed SQL and the TESTED
		// record both live only inside this transaction, which is
		// discarded regardless of success.
		if rbErr := e.Adapter.Rollback(ctx, tx); rbErr != nil {
			if _, unsupported := rbErr.(swerrs.DryRunUnsupportedError); unsupported {
				return rbErr
			}
			return swerrs.ExecutionFailedError{VersionID: step.VersionID, Direction: string(step.Direction), Cause: rbErr}
		}
		return nil
	}

	// On non-transactional engines the DDL already ran outside any real
	// transaction (NoOpTx); commit below only finalizes the records
	// upsert. A crash in that window leaves orphaned DDL with no record,
	// a known PartialApply risk surfaced as a pre-flight warning rather
	// than detected here.
	return e.Adapter.Commit(ctx, tx)
}

func (e Executor) recordFailure(ctx context.Context, session engine.Session, step swmigration.PlanStep, cause error) error {
	tx, err := e.Adapter.Begin(ctx, session)
	if err != nil {
		return swerrs.ExecutionFailedError{VersionID: step.VersionID, Direction: string(step.Direction), Cause: cause}
	}
	if err := e.Records.Upsert(ctx, tx, recordFor(step, swmigration.StatusFailed)); err != nil {
		_ = e.Adapter.Rollback(ctx, tx)
		return swerrs.ExecutionFailedError{VersionID: step.VersionID, Direction: string(step.Direction), Cause: cause}
	}
	if err := e.Adapter.Commit(ctx, tx); err != nil {
		return swerrs.ExecutionFailedError{VersionID: step.VersionID, Direction: string(step.Direction), Cause: cause}
	}
	return swerrs.ExecutionFailedError{VersionID: step.VersionID, Direction: string(step.Direction), Cause: cause}
}

func statusForStep(mode swmigration.Mode, direction swmigration.Direction) swmigration.Status {
	if mode == swmigration.ModeDryRun {
		return swmigration.StatusTested
	}
	if direction == swmigration.DirectionDown {
		return swmigration.StatusRolledBack
	}
	return swmigration.StatusApplied
}

func recordFor(step swmigration.PlanStep, status swmigration.Status) swmigration.RecordedMigration {
	return swmigration.RecordedMigration{
		VersionID:        step.VersionID,
		ObjectType:       swmigration.ObjectTypeMigration,
		ObjectNameBefore: step.Slug,
		ObjectNameAfter:  step.Slug,
		Status:           status,
		Checksum:         step.Checksum,
	}
}
