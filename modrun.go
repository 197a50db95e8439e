// Package modrun is a modular test-execution orchestrator: it partitions a
// test suite into a fixed catalogue of modules, runs each module as an
// isolated child process so memory is reclaimed between modules, captures
// per-module log artifacts, and derives a CI-gateable exit code from the
// failure count.
package modrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/testinfra/modrun/catalogue"
	"github.com/testinfra/modrun/exitcodes"
	"github.com/testinfra/modrun/logging"
	"github.com/testinfra/modrun/reporting"
	"github.com/testinfra/modrun/runner"
	"github.com/testinfra/modrun/types"
)

// Orchestrator drives the catalogue through the module runner and renders
// the aggregate report.
type Orchestrator struct {
	ctx       context.Context
	config    *Config
	version   string
	catalogue *catalogue.Catalogue

	// summary is written by the periodic runner goroutine in continuous
	// mode, so reads go through summaryMu
	summaryMu sync.RWMutex
	summary   *types.RunSummary

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates an Orchestrator from a validated config
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Orchestrator, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debugw("Creating orchestrator with config",
		"catalogue", config.CatalogueFile,
		"engine", config.EngineBinary,
		"workDir", config.WorkDir,
		"logDir", config.LogDir,
		"parallelism", config.Parallelism,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	cat, err := catalogue.NewCatalogue(catalogue.Config{
		Log:           config.Log,
		CatalogueFile: config.CatalogueFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalogue: %w", err)
	}
	config.Log.Infow("Loaded module catalogue", "modules", cat.Size())

	return &Orchestrator{
		ctx:              ctx,
		config:           config,
		version:          version,
		catalogue:        cat,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start executes the catalogue, either once or periodically at the
// configured interval.
func (o *Orchestrator) Start(ctx context.Context) error {
	// Panics are infrastructure failures, never a module-failure count
	defer func() {
		if r := recover(); r != nil {
			o.config.Log.Errorw("Infrastructure error occurred", "error", r)
			os.Exit(exitcodes.InfraErr)
		}
	}()

	o.ctx = ctx
	o.done = make(chan struct{})
	o.running.Store(true)

	if o.config.RunOnce {
		o.config.Log.Infow("Starting modrun in run-once mode")
	} else {
		o.config.Log.Infow("Starting modrun in continuous mode", "interval", o.config.RunInterval)
	}

	if err := o.runModules(); err != nil {
		o.config.Log.Errorw("Infrastructure error running modules", "error", err)
		return NewInfraError(err)
	}

	if o.config.RunOnce {
		o.config.Log.Infow("Run completed, exiting (run-once mode)")
		o.running.Store(false)

		if summary := o.Summary(); summary != nil && summary.Stats.Failed > 0 {
			o.config.Log.Warnw("Run completed with failures",
				"failed", summary.Stats.Failed, "exit_code", exitcodes.FromFailureCount(summary.Stats.Failed))
			return NewModuleFailureError(summary.Stats.Failed, summary.String())
		}

		// Only needed in run-once mode when every module passed
		go func() {
			o.shutdownCallback(nil)
		}()
		return nil
	}

	// Start a goroutine for periodic runs
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.config.Log.Debugw("Starting periodic runner goroutine", "interval", o.config.RunInterval)

		for {
			select {
			case <-time.After(o.config.RunInterval):
				if !o.running.Load() {
					o.config.Log.Debugw("Service stopped, exiting periodic runner")
					return
				}

				o.config.Log.Infow("Running periodic modules")
				if err := o.runModules(); err != nil {
					o.config.Log.Errorw("Error running periodic modules", "error", err)
				}

			case <-o.done:
				o.config.Log.Debugw("Done signal received, stopping periodic runner")
				return

			case <-ctx.Done():
				o.config.Log.Debugw("Context canceled, stopping periodic runner")
				o.running.Store(false)
				return
			}
		}
	}()
	o.config.Log.Debugw("modrun started successfully")
	return nil
}

// runModules runs the whole catalogue once and renders the results
func (o *Orchestrator) runModules() error {
	runID := uuid.New().String()
	o.config.Log.Infow("Running all modules...", "run_id", runID)

	fileLogger, err := logging.NewFileLogger(o.config.LogDir, runID)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}

	moduleRunner, err := runner.NewModuleRunner(runner.Config{
		Catalogue:    o.catalogue,
		WorkDir:      o.config.WorkDir,
		Log:          o.config.Log,
		EngineBinary: o.config.EngineBinary,
		EngineArgs:   o.config.EngineArgs,
		Parallelism:  o.config.Parallelism,
		FileLogger:   fileLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to create module runner: %w", err)
	}

	summary, err := moduleRunner.RunAll(o.ctx)
	if err != nil {
		return err
	}
	o.summaryMu.Lock()
	o.summary = summary
	o.summaryMu.Unlock()

	o.printResultsTable(summary)
	fmt.Println(reporting.FormatSummaryText(summary))
	o.config.Log.Infow("Run completed", "run_id", summary.RunID, "status", summary.Status,
		"logs", fileLogger.GetBaseDir())
	return nil
}

// printResultsTable prints the per-module results to the console
func (o *Orchestrator) printResultsTable(summary *types.RunSummary) {
	reporter := reporting.NewTableReporter("Modular Test Results")
	reporter.Render(os.Stdout, summary)
}

// Summary returns the result of the most recent completed run
func (o *Orchestrator) Summary() *types.RunSummary {
	o.summaryMu.RLock()
	defer o.summaryMu.RUnlock()
	return o.summary
}

// Stop stops the orchestrator service.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.config.Log.Infow("Stopping modrun")

	if !o.running.Load() {
		o.config.Log.Debugw("Service already stopped, nothing to do")
		return nil
	}

	// Update running state first to prevent new runs
	o.running.Store(false)

	o.config.Log.Debugw("Sending done signal to goroutines")
	close(o.done)

	o.config.Log.Infow("modrun stopped successfully")
	return nil
}

// Stopped returns true if the orchestrator service is stopped.
func (o *Orchestrator) Stopped() bool {
	return !o.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving on.
func (o *Orchestrator) WaitForShutdown(ctx context.Context) error {
	o.config.Log.Debugw("Waiting for all goroutines to terminate")

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.config.Log.Debugw("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		o.config.Log.Warnw("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}
