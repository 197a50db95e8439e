package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "MODRUN"

// prefixEnvVars binds a flag to its MODRUN_-prefixed environment variable
func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Catalogue = &cli.StringFlag{
		Name:    "catalogue",
		Value:   "catalogue.yaml",
		EnvVars: prefixEnvVars("CATALOGUE"),
		Usage:   "Path to the module catalogue file (eg. 'catalogue.yaml')",
	}
	EngineBinary = &cli.StringFlag{
		Name:     "engine",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("ENGINE"),
		Usage:    "Path to the test-execution engine binary invoked once per module",
	}
	EngineArgs = &cli.StringSliceFlag{
		Name:    "engine-arg",
		EnvVars: prefixEnvVars("ENGINE_ARGS"),
		Usage:   "Extra argument passed to the engine before the module ID (repeatable)",
	}
	WorkDir = &cli.StringFlag{
		Name:    "workdir",
		Value:   ".",
		EnvVars: prefixEnvVars("WORKDIR"),
		Usage:   "Directory the engine process runs in",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVars("LOGDIR"),
		Usage:   "Directory to store per-module log artifacts",
	}
	Parallelism = &cli.IntFlag{
		Name:    "parallelism",
		Value:   1,
		EnvVars: prefixEnvVars("PARALLELISM"),
		Usage:   "Internal-parallelism hint passed to the engine per module (modules themselves always run one at a time)",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level for orchestrator output (debug, info, warn, error)",
	}
)

var requiredFlags = []cli.Flag{
	EngineBinary,
}

var optionalFlags = []cli.Flag{
	Catalogue,
	EngineArgs,
	WorkDir,
	LogDir,
	Parallelism,
	RunInterval,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
