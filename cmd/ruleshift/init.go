package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraudmesh/ruleshift/internal/infrastructure/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long:  "Creates a config file with an example environment entry. Edit it with real connection parameters before running fetch.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(globalConfig); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", globalConfig)
	fmt.Println("Fill in the environment connection details, then run 'ruleshift --env NAME fetch'.")

	return nil
}
