package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var orgID int64

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch candidate rules and stage converted content",
		Long:  "Loads rules still carrying the legacy sender_receiver marker, converts them to perspective lists, and stages every changed rule in the environment's snapshot file for review.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var org *int64
			if cmd.Flags().Changed("org-id") {
				org = &orgID
			}
			return runFetch(cmd.Context(), org)
		},
	}

	cmd.Flags().Int64Var(&orgID, "org-id", 0, "Restrict candidates to one org")

	return cmd
}

func runFetch(ctx context.Context, orgID *int64) error {
	return withDeps(ctx, func(d *Deps) error {
		result, err := d.FetchHandler.Handle(ctx, d.Env, orgID)
		if err != nil {
			return fmt.Errorf("fetching rules: %w", err)
		}

		if result.RemovedSnapshot != "" {
			fmt.Printf("Deleted existing env file: %s\n", result.RemovedSnapshot)
		}
		fmt.Printf("Loaded %d candidate rules\n", result.Loaded)
		if result.SnapshotPath != "" {
			fmt.Printf("Wrote %d updated rule(s) to %s\n", result.Converted, result.SnapshotPath)
		}
		fmt.Printf("Done. Converted %d of %d rules.\n", result.Converted, result.Loaded)

		return nil
	})
}
