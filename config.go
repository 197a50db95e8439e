package modrun

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/testinfra/modrun/flags"
)

// Config holds the application configuration
type Config struct {
	CatalogueFile string        // Path to the module catalogue file
	EngineBinary  string        // Path to the test-execution engine binary
	EngineArgs    []string      // Extra arguments passed to the engine
	WorkDir       string        // Directory the engine process runs in
	LogDir        string        // Directory to store module log artifacts
	Parallelism   int           // Internal-parallelism hint passed to the engine
	RunInterval   time.Duration // Interval between runs
	RunOnce       bool          // Indicates if the service should exit after one run
	Log           *zap.SugaredLogger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log *zap.SugaredLogger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	catalogueFile := ctx.String(flags.Catalogue.Name)
	if catalogueFile == "" {
		return nil, fmt.Errorf("catalogue file is required")
	}

	engineBinary := ctx.String(flags.EngineBinary.Name)
	if engineBinary == "" {
		return nil, fmt.Errorf("engine binary is required")
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}

	// Resolve the absolute paths
	absCatalogue, err := filepath.Abs(catalogueFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for catalogue '%s': %w", catalogueFile, err)
	}
	absWorkDir, err := filepath.Abs(ctx.String(flags.WorkDir.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for work directory: %w", err)
	}
	absLogDir, err := filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	parallelism := ctx.Int(flags.Parallelism.Name)
	if parallelism < 1 {
		parallelism = 1
	}

	return &Config{
		CatalogueFile: absCatalogue,
		EngineBinary:  engineBinary,
		EngineArgs:    ctx.StringSlice(flags.EngineArgs.Name),
		WorkDir:       absWorkDir,
		LogDir:        absLogDir,
		Parallelism:   parallelism,
		RunInterval:   runInterval,
		RunOnce:       runOnce,
		Log:           log,
	}, nil
}
