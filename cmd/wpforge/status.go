package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/app"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the recorded state of a previous run",
	Long: `Status prints the persisted outcome of each step from the last run
along with the names of any stored secrets. It reads the state file only
and never touches the system.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provisioner := app.New(cfg, os.Stdout).WithLogger(newLogger())

	return provisioner.Status(context.Background())
}
