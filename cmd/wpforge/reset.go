package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/app"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete persisted run state",
	Long: `Reset removes the state file so the next run starts from scratch.
Stored secrets are deleted with it; databases, packages and files on the
system are left untouched.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "confirm deletion of recorded state and secrets")
	rootCmd.AddCommand(resetCmd)
}

func runReset(_ *cobra.Command, _ []string) error {
	if !resetForce {
		return fmt.Errorf("reset discards recorded state and generated secrets; re-run with --force to confirm")
	}

	if err := requireRoot(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provisioner := app.New(cfg, os.Stdout).WithLogger(newLogger())

	return provisioner.Reset(context.Background())
}
