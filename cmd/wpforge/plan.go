package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/app"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a run would do",
	Long: `Plan evaluates every step's precondition and prints which steps are
already satisfied and which would be applied. Nothing is changed.`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provisioner := app.New(cfg, os.Stdout).WithLogger(newLogger())

	_, err = provisioner.Plan(context.Background())
	return err
}
