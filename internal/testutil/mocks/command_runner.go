// Package mocks provides test doubles for the ports interfaces.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wpforge/wpforge/internal/ports"
)

// CommandRunner is a thread-safe test double for ports.CommandRunner.
type CommandRunner struct {
	mu      sync.RWMutex
	results map[string]ports.CommandResult
	errors  map[string]error
	hooks   map[string]func()
	calls   []ports.CommandCall
}

// NewCommandRunner creates a new CommandRunner mock.
func NewCommandRunner() *CommandRunner {
	return &CommandRunner{
		results: make(map[string]ports.CommandResult),
		errors:  make(map[string]error),
		hooks:   make(map[string]func()),
		calls:   make([]ports.CommandCall, 0),
	}
}

// AddResult registers an expected command and its result.
func (m *CommandRunner) AddResult(command string, args []string, result ports.CommandResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[buildKey(command, args)] = result
}

// AddError registers an expected command that should return an error.
func (m *CommandRunner) AddError(command string, args []string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[buildKey(command, args)] = err
}

// OnRun registers a side effect invoked when the command executes,
// for commands whose real effect the test has to simulate.
func (m *CommandRunner) OnRun(command string, args []string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[buildKey(command, args)] = fn
}

// Run executes a mock command.
func (m *CommandRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	return m.RunInput(ctx, "", command, args...)
}

// RunInput executes a mock command, recording the stdin it was fed.
func (m *CommandRunner) RunInput(_ context.Context, stdin string, command string, args ...string) (ports.CommandResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ports.CommandCall{
		Command: command,
		Args:    args,
		Stdin:   stdin,
	})
	m.mu.Unlock()

	key := buildKey(command, args)

	m.mu.RLock()
	hook := m.hooks[key]
	m.mu.RUnlock()
	if hook != nil {
		hook()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.errors[key]; ok {
		return ports.CommandResult{}, err
	}

	if result, ok := m.results[key]; ok {
		return result, nil
	}

	return ports.CommandResult{}, fmt.Errorf("no mock result for command: %s %v", command, args)
}

// Calls returns all recorded command invocations.
func (m *CommandRunner) Calls() []ports.CommandCall {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]ports.CommandCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CalledWith reports whether any recorded invocation ran the given
// command with the given arguments.
func (m *CommandRunner) CalledWith(command string, args ...string) bool {
	for _, call := range m.Calls() {
		if call.Command == command && buildKey(command, call.Args) == buildKey(command, args) {
			return true
		}
	}
	return false
}

// Reset clears all registered results, errors, and recorded calls.
func (m *CommandRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string]ports.CommandResult)
	m.errors = make(map[string]error)
	m.hooks = make(map[string]func())
	m.calls = make([]ports.CommandCall, 0)
}

// buildKey creates a unique key for a command and its arguments.
func buildKey(command string, args []string) string {
	return command + ":" + strings.Join(args, ":")
}

// Ensure CommandRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*CommandRunner)(nil)
