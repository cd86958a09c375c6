// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/franciscoabsampaio/swellow/cmd/flags"
	"github.com/franciscoabsampaio/swellow/pkg/jsonenvelope"
)

const snapshotDownComment = "-- rolling back a snapshot is not meaningful: it captures schema state,\n-- not a reversible change. Edit this file if a rollback path exists.\n"

// snapshotCmd dumps the live schema into a new migration directory. It
// never modifies the database; the advisory lock is held only to keep the
// dump internally consistent against a concurrent migrator.
func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Capture the current schema as a new migration directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			c, err := loadConfig()
			if err != nil {
				return fail(flags.JSON(), "snapshot", err)
			}

			mc, err := openMigrateContext(ctx, c)
			if err != nil {
				return fail(c.JSON, "snapshot", err)
			}
			defer mc.session.Close()

			guard, err := mc.adapter.AcquireLock(ctx, mc.session, c.IgnoreLocks)
			if err != nil {
				return fail(c.JSON, "snapshot", err)
			}
			defer guard.Release(ctx)

			current, err := mc.store.CurrentVersion(ctx, mc.session)
			if err != nil {
				return fail(c.JSON, "snapshot", err)
			}
			next := current + 1

			upSQL, err := mc.adapter.Snapshot(ctx, mc.session)
			if err != nil {
				return fail(c.JSON, "snapshot", err)
			}

			dirName := fmt.Sprintf("%06d_snapshot", next)
			target := filepath.Join(c.Dir, dirName)
			if err := writeSnapshotDir(c.Dir, target, upSQL); err != nil {
				return fail(c.JSON, "snapshot", err)
			}

			if c.JSON {
				return jsonenvelope.WriteSuccess(os.Stdout, "snapshot", map[string]any{
					"version_id": next,
					"directory":  target,
				})
			}

			pterm.Success.Printfln("wrote snapshot to %s", target)
			return nil
		},
	}
}

// writeSnapshotDir stages up.sql/down.sql under a temporary directory next
// to dir, then renames it into place, so a crash mid-write never leaves a
// partially populated migration directory for the loader to trip over.
func writeSnapshotDir(dir, target, upSQL string) error {
	tmp, err := os.MkdirTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	if err := os.WriteFile(filepath.Join(tmp, "up.sql"), []byte(upSQL), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tmp, "down.sql"), []byte(snapshotDownComment), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, target)
}
