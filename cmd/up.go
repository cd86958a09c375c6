// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/franciscoabsampaio/swellow/cmd/flags"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

func upCmd() *cobra.Command {
	var targetVersionID int64
	var planOnly bool
	var dryRun bool
	var retryFailed bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply outstanding migrations up to the target version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			c, err := loadConfig()
			if err != nil {
				return fail(flags.JSON(), "up", err)
			}

			mc, err := openMigrateContext(ctx, c)
			if err != nil {
				return fail(c.JSON, "up", err)
			}
			defer mc.session.Close()

			var target *int64
			if cmd.Flags().Changed("target-version-id") {
				target = &targetVersionID
			}

			mode := swmigration.ModeExecute
			switch {
			case planOnly:
				mode = swmigration.ModePlanOnly
			case dryRun:
				mode = swmigration.ModeDryRun
			}

			plan, err := buildPlan(ctx, mc, c.Dir, swmigration.DirectionUp, mode, target, retryFailed)
			if err != nil {
				return fail(c.JSON, "up", err)
			}

			return reportPlan(ctx, mc, c, plan, "up")
		},
	}

	cmd.Flags().Int64Var(&targetVersionID, "target-version-id", 0, "Target migration version (defaults to the latest on disk)")
	cmd.Flags().BoolVar(&planOnly, "plan", false, "Print the plan without applying it")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Apply and roll back every step inside a transaction")
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "Retry versions with a FAILED record")

	return cmd
}
