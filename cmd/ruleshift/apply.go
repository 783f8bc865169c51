package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply staged rules to the database",
		Long:  "Reads the environment's snapshot file and writes each staged rule back to its destination row inside one transaction, backing up the prior content first.",
		RunE:  runApply,
	}
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withDeps(ctx, func(d *Deps) error {
		result, err := d.ApplyHandler.Handle(ctx, d.Env)
		if err != nil {
			return fmt.Errorf("applying rules: %w", err)
		}

		fmt.Printf("Applied %d rule(s) from %s. Backups at %s\n",
			result.Updated, result.SnapshotPath, result.BackupDir)
		if result.Skipped > 0 {
			fmt.Printf("Skipped %d staged record(s); details logged above.\n", result.Skipped)
		}
		fmt.Printf("Run manifest: %s\n", result.ManifestPath)

		return nil
	})
}
