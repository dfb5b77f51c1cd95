// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
)

// CommandResult represents the result of executing a shell command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
	Stdin   string
}

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)

	// RunInput executes a command with the given string fed to its stdin.
	// Used for tools that read scripted input, e.g. a SQL batch piped to mysql.
	RunInput(ctx context.Context, stdin string, command string, args ...string) (CommandResult, error)
}
