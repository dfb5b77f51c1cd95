package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wpforge/wpforge/internal/adapters/logging"
	"github.com/wpforge/wpforge/internal/adapters/runlock"
	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/ports"
)

// Exit codes, one per failure class, so wrappers can react without
// parsing output.
const (
	exitFailure       = 1
	exitNotPrivileged = 2
	exitPrecondition  = 3
	exitApplyFailed   = 4
	exitLockHeld      = 5
)

var (
	// Global flags.
	cfgFile   string
	stateFile string
	verbose   bool
	jsonLog   bool
)

var rootCmd = &cobra.Command{
	Use:   "wpforge",
	Short: "Idempotent WordPress stack provisioner",
	Long: `wpforge provisions a complete WordPress stack (Apache, MariaDB, PHP)
on a fresh Debian/Ubuntu host.

Every step declares a precondition and an apply action: steps whose effect
is already in place are skipped, progress is persisted, and an interrupted
or failed run resumes where it stopped instead of starting over. Generated
credentials are created once and reused on every later run.`,
	SilenceErrors: true, // main handles error formatting and exit codes
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&stateFile, "state", "", "state file (overrides state_path from the config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json", false, "JSON log output")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration for the current invocation.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if stateFile != "" {
		cfg.StatePath = stateFile
	}
	return cfg, nil
}

// newLogger builds the logger from the global flags.
func newLogger() ports.Logger {
	opts := []logging.Option{logging.WithJSONFormat(jsonLog)}
	if verbose {
		opts = append(opts, logging.WithLevel(ports.LevelDebug))
	}
	return logging.NewConsoleLogger(opts...)
}

// requireRoot fails early when the process cannot perform system changes.
func requireRoot() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("%w: re-run with sudo", engine.ErrNotPrivileged)
	}
	return nil
}

// exitCode maps an error to the documented exit code.
func exitCode(err error) int {
	var preErr *engine.PreconditionError
	var applyErr *engine.ApplyError

	switch {
	case err == nil:
		return 0
	case errors.Is(err, engine.ErrNotPrivileged):
		return exitNotPrivileged
	case errors.As(err, &preErr):
		return exitPrecondition
	case errors.As(err, &applyErr):
		return exitApplyFailed
	case errors.Is(err, runlock.ErrLockHeld):
		return exitLockHeld
	default:
		return exitFailure
	}
}

// printError prints an error message to stderr.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", err)
}
