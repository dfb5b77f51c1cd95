// Package app wires the adapters, step registry and engine together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wpforge/wpforge/internal/adapters/command"
	"github.com/wpforge/wpforge/internal/adapters/fetch"
	"github.com/wpforge/wpforge/internal/adapters/filesystem"
	"github.com/wpforge/wpforge/internal/adapters/logging"
	"github.com/wpforge/wpforge/internal/adapters/runlock"
	"github.com/wpforge/wpforge/internal/adapters/staterepo"
	"github.com/wpforge/wpforge/internal/config"
	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/domain/secret"
	"github.com/wpforge/wpforge/internal/domain/state"
	"github.com/wpforge/wpforge/internal/ports"
	"github.com/wpforge/wpforge/internal/provider/apache"
	"github.com/wpforge/wpforge/internal/provider/apt"
	"github.com/wpforge/wpforge/internal/provider/mariadb"
	"github.com/wpforge/wpforge/internal/provider/wordpress"
	"github.com/wpforge/wpforge/internal/report"
)

// Provisioner is the application orchestrator: it builds the step registry
// from configuration and drives planning and execution through the engine.
type Provisioner struct {
	cfg       *config.Config
	runner    ports.CommandRunner
	fs        ports.FileSystem
	fetcher   ports.Fetcher
	logger    ports.Logger
	stateRepo state.Repository
	reporter  *report.Reporter
	planner   *engine.Planner
	executor  *engine.Executor
	credsPath string
}

// New creates a Provisioner with real adapters.
func New(cfg *config.Config, out io.Writer) *Provisioner {
	return &Provisioner{
		cfg:       cfg,
		runner:    command.NewRealRunner(),
		fs:        filesystem.NewRealFileSystem(),
		fetcher:   fetch.NewHTTPFetcher(),
		logger:    logging.NewNopLogger(),
		stateRepo: staterepo.NewYAMLRepository(),
		reporter:  report.NewReporter(out),
		planner:   engine.NewPlanner(),
		executor:  engine.NewExecutor(),
		credsPath: mariadb.DefaultCredentialsPath,
	}
}

// WithLogger sets the logger.
func (p *Provisioner) WithLogger(logger ports.Logger) *Provisioner {
	p.logger = logger
	return p
}

// WithRunner overrides the command runner (tests).
func (p *Provisioner) WithRunner(runner ports.CommandRunner) *Provisioner {
	p.runner = runner
	return p
}

// WithFileSystem overrides the filesystem (tests).
func (p *Provisioner) WithFileSystem(fs ports.FileSystem) *Provisioner {
	p.fs = fs
	return p
}

// WithFetcher overrides the HTTP fetcher (tests).
func (p *Provisioner) WithFetcher(fetcher ports.Fetcher) *Provisioner {
	p.fetcher = fetcher
	return p
}

// WithStateRepo overrides the state repository (tests).
func (p *Provisioner) WithStateRepo(repo state.Repository) *Provisioner {
	p.stateRepo = repo
	return p
}

// WithCredentialsPath overrides where the mysql client credentials land (tests).
func (p *Provisioner) WithCredentialsPath(path string) *Provisioner {
	p.credsPath = path
	return p
}

// buildGraph assembles the fixed step set from the configuration.
func (p *Provisioner) buildGraph() (*engine.StepGraph, error) {
	gen := secret.NewGenerator(p.fetcher, p.cfg.SaltURL)

	steps := []engine.Step{
		apt.NewUpdateStep(p.cfg.AptFreshness, p.runner, p.fs),
		apt.NewInstallStep(p.cfg.Packages, p.runner),
		mariadb.NewSecureStep(p.cfg.RootPasswordBytes, p.credsPath, gen, p.runner, p.fs),
		mariadb.NewDatabaseStep(p.cfg.DatabaseName, p.cfg.DatabaseUser, p.cfg.DBPasswordBytes, gen, p.runner),
		wordpress.NewDeployStep(p.cfg.TargetDir, p.cfg.ArchiveURL, p.cfg.ChecksumURL, p.fetcher, p.runner, p.fs),
		wordpress.NewConfigStep(p.cfg.TargetDir, p.cfg.DatabaseName, p.cfg.DatabaseUser, p.cfg.WebUser, p.cfg.WebGroup, gen, p.runner, p.fs),
		wordpress.NewPermissionsStep(p.cfg.TargetDir, p.cfg.WebUser, p.cfg.WebGroup, p.runner, p.fs),
		apache.NewConfigureStep(p.cfg.TargetDir, p.cfg.VhostPath, p.runner, p.fs),
		apache.NewRestartStep(p.cfg.ApacheService, p.runner),
	}

	graph := engine.NewStepGraph()
	for _, step := range steps {
		if err := graph.Add(step); err != nil {
			return nil, err
		}
	}

	return graph, nil
}

// loadState reads the persisted run state, starting fresh when none exists.
func (p *Provisioner) loadState(ctx context.Context) (*state.RunState, error) {
	runState, err := p.stateRepo.Load(ctx, p.cfg.StatePath)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return state.NewRunState(), nil
		}
		return nil, err
	}
	return runState, nil
}

// Plan evaluates every precondition without changing anything and prints
// the resulting plan.
func (p *Provisioner) Plan(ctx context.Context) (*engine.Plan, error) {
	lock := runlock.New(p.cfg.LockPath)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	runState, err := p.loadState(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := p.plan(ctx, runState)
	if err != nil {
		return nil, err
	}

	p.reporter.PrintPlan(plan)
	return plan, nil
}

// Run provisions the host: plan, execute, report. With dryRun no apply
// action runs and no state is written.
func (p *Provisioner) Run(ctx context.Context, dryRun bool) (*engine.Report, error) {
	lock := runlock.New(p.cfg.LockPath)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	runState, err := p.loadState(ctx)
	if err != nil {
		return nil, err
	}

	runCtx := engine.NewRunContext(ctx, runState)

	plan, err := p.plan(ctx, runState)
	if err != nil {
		return nil, err
	}

	p.reporter.PrintPlan(plan)
	p.logger.Info(ctx, "starting run",
		ports.F("steps", plan.Len()),
		ports.F("to_apply", plan.Summary().NeedsApply),
		ports.F("dry_run", dryRun))

	persist := func() error {
		return p.stateRepo.Save(ctx, p.cfg.StatePath, runState)
	}

	execReport, execErr := p.executor.WithDryRun(dryRun).Execute(runCtx, plan, persist)
	p.reporter.PrintResults(execReport)

	if execErr != nil {
		p.logger.Error(ctx, "run halted", ports.F("error", execErr.Error()))
		return execReport, execErr
	}

	if !dryRun {
		p.reporter.Summary(p.cfg.DatabaseName, p.cfg.DatabaseUser, runCtx.Secrets())
	}
	p.logger.Info(ctx, "run finished", ports.F("applied", execReport.AppliedCount()))

	return execReport, nil
}

// Status prints the persisted run state.
func (p *Provisioner) Status(ctx context.Context) error {
	runState, err := p.stateRepo.Load(ctx, p.cfg.StatePath)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return fmt.Errorf("no state recorded at %s; nothing has been provisioned", p.cfg.StatePath)
		}
		return err
	}

	p.reporter.PrintStatus(runState)
	return nil
}

// Reset deletes the persisted state. It never touches the deployed site or
// the database; it only makes the next run start from scratch.
func (p *Provisioner) Reset(ctx context.Context) error {
	if err := p.stateRepo.Delete(ctx, p.cfg.StatePath); err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (p *Provisioner) plan(ctx context.Context, runState *state.RunState) (*engine.Plan, error) {
	graph, err := p.buildGraph()
	if err != nil {
		return nil, err
	}

	runCtx := engine.NewRunContext(ctx, runState)
	return p.planner.Plan(runCtx, graph)
}
