package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraudmesh/ruleshift/internal/infrastructure/backups"
	"github.com/fraudmesh/ruleshift/internal/infrastructure/config"
)

func newBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backup runs recorded for an environment",
		RunE:  runBackups,
	}
}

// runBackups only reads the local backup directory, so it never opens a
// database session.
func runBackups(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(globalConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if globalEnv == "" {
		return errors.New("environment is required (use --env flag)")
	}
	if _, err := cfg.Environment(globalEnv); err != nil {
		return err
	}

	runs, err := backups.NewStore(cfg.BackupRoot).ListRuns(globalEnv)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Printf("No backup runs recorded for %s.\n", globalEnv)
		return nil
	}

	for _, run := range runs {
		fmt.Println(run)
	}
	fmt.Printf("\nRestore one with 'ruleshift --env %s restore --backup-timestamp TIMESTAMP'.\n", globalEnv)

	return nil
}
