package engine

import (
	"context"

	"github.com/wpforge/wpforge/internal/domain/secret"
	"github.com/wpforge/wpforge/internal/domain/state"
)

// RunContext carries everything a step needs during Check and Apply:
// the cancellation context, the dry-run flag, the persisted run state and
// the secret store bound to it.
type RunContext struct {
	ctx      context.Context
	dryRun   bool
	runState *state.RunState
	secrets  *secret.Store
}

// NewRunContext creates a RunContext over the given state.
func NewRunContext(ctx context.Context, runState *state.RunState) RunContext {
	return RunContext{
		ctx:      ctx,
		runState: runState,
		secrets:  secret.NewStore(runState),
	}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}

// DryRun returns whether this is a dry-run execution.
func (r RunContext) DryRun() bool {
	return r.dryRun
}

// WithDryRun returns a copy of the RunContext with the dry-run flag set.
func (r RunContext) WithDryRun(dryRun bool) RunContext {
	r.dryRun = dryRun
	return r
}

// State returns the persisted run state.
func (r RunContext) State() *state.RunState {
	return r.runState
}

// Secrets returns the secret store bound to the run state.
func (r RunContext) Secrets() *secret.Store {
	return r.secrets
}
