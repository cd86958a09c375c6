// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/franciscoabsampaio/swellow/cmd/flags"
	"github.com/franciscoabsampaio/swellow/pkg/swerrs"
	"github.com/franciscoabsampaio/swellow/pkg/swmigration"
)

func downCmd() *cobra.Command {
	var targetVersionID int64
	var planOnly bool
	var retryFailed bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations down to the target version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !cmd.Flags().Changed("target-version-id") {
				return fail(flags.JSON(), "down", swerrs.ArgumentError{Reason: "--target-version-id is required for down"})
			}

			c, err := loadConfig()
			if err != nil {
				return fail(flags.JSON(), "down", err)
			}

			mc, err := openMigrateContext(ctx, c)
			if err != nil {
				return fail(c.JSON, "down", err)
			}
			defer mc.session.Close()

			mode := swmigration.ModeExecute
			if planOnly {
				mode = swmigration.ModePlanOnly
			}

			plan, err := buildPlan(ctx, mc, c.Dir, swmigration.DirectionDown, mode, &targetVersionID, retryFailed)
			if err != nil {
				return fail(c.JSON, "down", err)
			}

			return reportPlan(ctx, mc, c, plan, "down")
		},
	}

	cmd.Flags().Int64Var(&targetVersionID, "target-version-id", 0, "Target migration version to roll back to")
	cmd.Flags().BoolVar(&planOnly, "plan", false, "Print the plan without applying it")
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "Retry versions with a FAILED record")

	return cmd
}
