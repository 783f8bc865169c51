// Package main provides the entry point for the ruleshift CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fraudmesh/ruleshift/internal/infrastructure/config"
)

var (
	version      = "0.1.0-dev"
	globalEnv    string
	globalConfig string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "ruleshift",
		Short:   "Migrate legacy sender_receiver rule markers to perspective lists",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&globalEnv, "env", "e", "", "Environment to operate on (required)")
	rootCmd.PersistentFlags().StringVar(&globalConfig, "config", config.DefaultConfigFile, "Path to the config file")

	rootCmd.AddCommand(
		newInitCmd(),
		newFetchCmd(),
		newApplyCmd(),
		newRestoreCmd(),
		newBackupsCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
