// Package runner executes the module catalogue: one isolated child process
// per module, strictly sequential so peak memory stays bounded by a single
// module's footprint. The child's combined output streams to a per-module
// log artifact; pass/fail comes from the process termination status alone.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"slices"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/testinfra/modrun/catalogue"
	"github.com/testinfra/modrun/logging"
	"github.com/testinfra/modrun/metrics"
	"github.com/testinfra/modrun/types"
)

// ModuleRunner defines the interface for running the module catalogue
type ModuleRunner interface {
	// RunAll executes every catalogue entry in order and returns the
	// aggregate summary. Module failures never abort the run; only
	// orchestrator-level infrastructure errors are returned.
	RunAll(ctx context.Context) (*types.RunSummary, error)

	// RunModule executes a single module as an isolated child process and
	// returns its outcome. The returned error is reserved for infrastructure
	// failures (an unwritable artifact); a module that fails to launch still
	// produces a Failed outcome with a nil error.
	RunModule(ctx context.Context, module types.Module) (*types.ModuleResult, error)
}

// runner struct implements the ModuleRunner interface
type runner struct {
	catalogue    *catalogue.Catalogue
	workDir      string
	log          *zap.SugaredLogger
	runID        string
	engineBinary string
	engineArgs   []string
	parallelism  int
	fileLogger   *logging.FileLogger
	tracer       trace.Tracer
}

// Config holds configuration for creating a new runner
type Config struct {
	Catalogue    *catalogue.Catalogue
	WorkDir      string // Directory the engine process runs in
	Log          *zap.SugaredLogger
	EngineBinary string   // Path to the test-execution engine binary
	EngineArgs   []string // Arguments passed to the engine before the module ID
	Parallelism  int      // Internal-parallelism hint passed to the engine
	FileLogger   *logging.FileLogger
}

// NewModuleRunner creates a new module runner instance
func NewModuleRunner(cfg Config) (ModuleRunner, error) {
	if cfg.Catalogue == nil {
		return nil, fmt.Errorf("catalogue is required")
	}
	if cfg.FileLogger == nil {
		return nil, fmt.Errorf("file logger is required")
	}
	if cfg.EngineBinary == "" {
		return nil, fmt.Errorf("engine binary is required")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = DefaultParallelism
	}

	cfg.Log.Debugw("NewModuleRunner()", "workDir", cfg.WorkDir,
		"engineBinary", cfg.EngineBinary, "parallelism", cfg.Parallelism,
		"modules", cfg.Catalogue.Size())

	return &runner{
		catalogue:    cfg.Catalogue,
		workDir:      cfg.WorkDir,
		log:          cfg.Log,
		engineBinary: cfg.EngineBinary,
		engineArgs:   cfg.EngineArgs,
		parallelism:  cfg.Parallelism,
		fileLogger:   cfg.FileLogger,
		tracer:       otel.Tracer("module runner"),
	}, nil
}

// RunAll implements the ModuleRunner interface
func (r *runner) RunAll(ctx context.Context) (*types.RunSummary, error) {
	r.runID = r.fileLogger.GetRunID()
	defer func() {
		r.runID = ""
	}()

	ctx, span := r.tracer.Start(ctx, "module run")
	defer span.End()

	start := time.Now()
	r.log.Debugw("Running all modules", "run_id", r.runID)

	summary := &types.RunSummary{
		RunID: r.runID,
		Stats: types.RunStats{StartTime: start},
	}

	for _, module := range r.catalogue.Modules() {
		result, err := r.RunModule(ctx, module)
		if err != nil {
			return nil, fmt.Errorf("running module %s: %w", module.ID, err)
		}

		summary.RecordResult(result)

		if err := r.fileLogger.LogModuleResult(result); err != nil {
			return nil, fmt.Errorf("logging result for module %s: %w", module.ID, err)
		}
		metrics.RecordModule(r.runID, module.ID, result.Status)
	}

	summary.Duration = time.Since(start)
	summary.Finalize()

	if err := r.fileLogger.Complete(summary); err != nil {
		return nil, fmt.Errorf("completing log sinks: %w", err)
	}

	metrics.RecordRun(r.runID, string(summary.Status),
		summary.Stats.Total, summary.Stats.Passed, summary.Stats.Failed,
		summary.Duration)

	return summary, nil
}

// RunModule implements the ModuleRunner interface
func (r *runner) RunModule(ctx context.Context, module types.Module) (*types.ModuleResult, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("module %s", module.ID))
	defer span.End()

	result := &types.ModuleResult{
		Module:   module,
		LogPath:  r.fileLogger.ArtifactPath(module),
		ExitCode: -1,
	}

	artifact, err := r.fileLogger.OpenArtifact(module)
	if err != nil {
		// Cannot capture output: an infrastructure failure, not a module one
		return nil, err
	}
	defer artifact.Close()

	args := r.buildEngineArgs(module)
	cmd := exec.CommandContext(ctx, r.engineBinary, args...)
	cmd.Dir = r.workDir

	// The engine contract is a single combined diagnostic stream
	combined := io.Writer(artifact)
	cmd.Stdout = combined
	cmd.Stderr = combined

	r.log.Infow("Running module", "module", module.ID, "engine", r.engineBinary, "args", args)

	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)
	_ = artifact.Sync()

	if runErr == nil {
		result.Status = types.ModuleStatusPass
		result.ExitCode = 0
		r.log.Infow("Module passed", "module", module.ID, "duration", result.Duration)
		return result, nil
	}

	result.Status = types.ModuleStatusFail
	exitErr := &exec.ExitError{}
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		result.Error = fmt.Errorf("engine exited with status %d", exitErr.ExitCode())
	} else {
		// The process never started. Keep the run going and leave an
		// explanation in the artifact so the failed entry stays inspectable.
		result.LaunchFailed = true
		result.Error = fmt.Errorf("failed to start test engine: %w", runErr)
		fmt.Fprintf(artifact, "modrun: failed to start test engine %q: %v\n", r.engineBinary, runErr)
	}
	r.log.Warnw("Module failed", "module", module.ID, "duration", result.Duration,
		"exit_code", result.ExitCode, "error", result.Error)

	return result, nil
}

// buildEngineArgs assembles the engine invocation for one module: run-wide
// args, the parallelism hint (per-module override wins), per-module extra
// args, then the module ID last.
func (r *runner) buildEngineArgs(module types.Module) []string {
	args := slices.Clone(r.engineArgs)

	parallelism := r.parallelism
	if module.Parallelism > 0 {
		parallelism = module.Parallelism
	}
	args = append(args, ParallelismFlag, strconv.Itoa(parallelism))

	args = append(args, module.ExtraArgs...)
	args = append(args, module.ID)
	return args
}
