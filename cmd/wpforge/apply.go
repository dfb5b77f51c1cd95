package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/app"
)

var applyDryRun bool

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Provision the host",
	Long: `Apply plans and executes the full step set.

Steps whose precondition already holds are skipped; completed steps are
recorded so a failed run resumes at the failing step. Use --dry-run to see
what would happen without making changes.`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "show what would be done without making changes")
}

func runApply(_ *cobra.Command, _ []string) error {
	if !applyDryRun {
		if err := requireRoot(); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provisioner := app.New(cfg, os.Stdout).WithLogger(newLogger())

	_, err = provisioner.Run(context.Background(), applyDryRun)
	return err
}
