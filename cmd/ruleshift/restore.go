package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	var backupTimestamp string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore database contents from a backup run",
		Long:  "Replays every backup entry of one apply run against the database, putting the original contents back. Use the backups command to list recorded run timestamps.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd.Context(), backupTimestamp)
		},
	}

	cmd.Flags().StringVar(&backupTimestamp, "backup-timestamp", "", "Timestamp of the backup run to restore (required)")

	return cmd
}

func runRestore(ctx context.Context, timestamp string) error {
	return withDeps(ctx, func(d *Deps) error {
		result, err := d.RestoreHandler.Handle(ctx, d.Env, timestamp)
		if err != nil {
			return fmt.Errorf("restoring rules: %w", err)
		}

		fmt.Printf("Restored %d item(s) from %s\n", result.Restored, result.Dir)
		if result.Skipped > 0 {
			fmt.Printf("Skipped %d backup file(s); details logged above.\n", result.Skipped)
		}

		return nil
	})
}
