// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/franciscoabsampaio/swellow/pkg/config"
	"github.com/franciscoabsampaio/swellow/pkg/engine"
	"github.com/franciscoabsampaio/swellow/pkg/executor"
	"github.com/franciscoabsampaio/swellow/pkg/jsonenvelope"
	"github.com/franciscoabsampaio/swellow/pkg/loader"
	"github.com/franciscoabsampaio/swellow/pkg/planner"
	"github.com/franciscoabsampaio/swellow/pkg/records"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

// migrateContext bundles the pieces up/down both need: a connected
// session over the configured adapter and the records store built on it.
type migrateContext struct {
	adapter engine.Adapter
	session engine.Session
	store   records.Store
}

// openMigrateContext resolves config, connects to the target engine and
// ensures the records schema exists. Callers must close ctx.session.
func openMigrateContext(ctx context.Context, c config.Config) (*migrateContext, error) {
	adapter, err := newAdapter(c)
	if err != nil {
		return nil, err
	}

	connString, err := resolveConnString(c)
	if err != nil {
		return nil, err
	}

	session, err := adapter.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := adapter.EnsureRecordsSchema(ctx, session); err != nil {
		session.Close()
		return nil, err
	}

	return &migrateContext{
		adapter: adapter,
		session: session,
		store:   records.Store{Adapter: adapter},
	}, nil
}

// buildPlan loads the migrations directory, reads the current records and
// reconciles them into a swmigration.Plan for the requested direction.
func buildPlan(ctx context.Context, mc *migrateContext, dir string, direction swmigration.Direction, mode swmigration.Mode, target *int64, retryFailed bool) (*swmigration.Plan, error) {
	local, err := loader.Load(dir)
	if err != nil {
		return nil, err
	}

	recs, err := mc.store.All(ctx, mc.session)
	if err != nil {
		return nil, err
	}

	plan, err := planner.Plan(local, recs, planner.Options{
		Direction:      direction,
		TargetVersion:  target,
		RetryFailed:    retryFailed,
		SupportsDryRun: mc.adapter.SupportsDryRun(),
	})
	if err != nil {
		return nil, err
	}
	plan.Mode = mode

	if !mc.adapter.SupportsTransactionalDDL() && !plan.NoOp() {
		plan.Diagnostics = append(plan.Diagnostics, fmt.Sprintf(
			"%s has no transactional DDL: a crash between a step's DDL and its records upsert leaves the DDL applied but unrecorded (PartialApply risk)",
			mc.adapter.Name()))
	}

	return plan, nil
}

// reportPlan runs the plan through the executor unless mode is plan_only,
// then prints it as a pterm table, or the §6.5 envelope under --json.
// Diagnostics are printed as warnings in human mode and carried inside the
// envelope under --json.
func reportPlan(ctx context.Context, mc *migrateContext, c config.Config, plan *swmigration.Plan, command string) error {
	if !c.JSON {
		for _, w := range plan.Diagnostics {
			pterm.Warning.Println(w)
		}
	}

	if plan.Mode == swmigration.ModePlanOnly {
		return emitPlan(c, command, plan, nil)
	}

	exec := executor.Executor{Adapter: mc.adapter, Records: mc.store, IgnoreLocks: c.IgnoreLocks}

	result, err := exec.Run(ctx, mc.session, plan)
	if err != nil {
		return fail(c.JSON, command, err)
	}

	return emitPlan(c, command, plan, result.Applied)
}

func emitPlan(c config.Config, command string, plan *swmigration.Plan, applied []swmigration.PlanStep) error {
	if c.JSON {
		return jsonenvelope.WriteSuccess(os.Stdout, command, map[string]any{
			"mode":         plan.Mode,
			"direction":    plan.Direction,
			"from_version": plan.FromVersion,
			"to_version":   plan.ToVersion,
			"steps":        plan.Steps,
			"applied":      applied,
			"diagnostics":  plan.Diagnostics,
		})
	}

	if plan.NoOp() {
		pterm.Info.Println("nothing to do; already at the requested version")
		return nil
	}

	table := pterm.TableData{{"VERSION", "SLUG", "DIRECTION"}}
	for _, s := range plan.Steps {
		table = append(table, []string{fmt.Sprintf("%d", s.VersionID), s.Slug, string(s.Direction)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}
