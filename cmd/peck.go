// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/franciscoabsampaio/swellow/cmd/flags"
	"github.com/franciscoabsampaio/swellow/pkg/jsonenvelope"
)

// peckCmd connects to the target engine and ensures the records schema
// exists, without touching migrations. It is the cheapest possible
// liveness/readiness probe against a configured backend.
func peckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peck",
		Short: "Connect to the target engine and ensure the records schema exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			c, err := loadConfig()
			if err != nil {
				return fail(flags.JSON(), "peck", err)
			}
			log := newLogger(c)

			adapter, err := newAdapter(c)
			if err != nil {
				return fail(c.JSON, "peck", err)
			}

			connString, err := resolveConnString(c)
			if err != nil {
				return fail(c.JSON, "peck", err)
			}

			log.Info("connecting", "engine", adapter.Name())
			session, err := adapter.Connect(ctx, connString)
			if err != nil {
				return fail(c.JSON, "peck", err)
			}
			defer session.Close()

			if err := adapter.EnsureRecordsSchema(ctx, session); err != nil {
				return fail(c.JSON, "peck", err)
			}

			if c.JSON {
				return jsonenvelope.WriteSuccess(os.Stdout, "peck", map[string]any{
					"engine": adapter.Name(),
				})
			}

			pterm.Success.Printfln("connected to %s and records schema is ready", adapter.Name())
			return nil
		},
	}
}
