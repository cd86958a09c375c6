// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/franciscoabsampaio/swellow/cmd/flags"
	"github.com/franciscoabsampaio/swellow/pkg/jsonenvelope"
	"github.com/franciscoabsampaio/swellow/pkg/loader"
)

// validateCmd runs the directory loader without connecting to any engine,
// surfacing malformed migrations before an operator ever points it at a
// real database.
func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the migrations directory without connecting to a database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := flags.Dir()
			json := flags.JSON()

			migs, err := loader.Load(dir)
			if err != nil {
				return fail(json, "validate", err)
			}

			if json {
				return jsonenvelope.WriteSuccess(os.Stdout, "validate", map[string]any{
					"directory":       dir,
					"migration_count": len(migs),
				})
			}

			pterm.Success.Printfln("%s: %d migrations, all well-formed", dir, len(migs))
			return nil
		},
	}
}
