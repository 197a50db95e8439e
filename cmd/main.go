package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	modrun "github.com/testinfra/modrun"
	"github.com/testinfra/modrun/exitcodes"
	"github.com/testinfra/modrun/flags"
	"github.com/testinfra/modrun/logging"
	"github.com/testinfra/modrun/service"
)

var (
	Version   = "v0.3.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "modrun"
	app.Usage = "Modular Test-Execution Orchestrator"
	app.Description = "modrun runs a fixed catalogue of test modules as isolated child processes, captures their logs, and derives a CI-gateable exit code"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if failErr, ok := modrun.AsModuleFailureError(err); ok {
			// Exit code equals the failed-module count
			cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.FromFailureCount(failErr.Count)))
		} else {
			// Infrastructure failures get the reserved code, never a count
			cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.InfraErr))
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup open telemetry: %v\n", err)
		os.Exit(exitcodes.InfraErr)
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start healthz and metrics servers
	svc := service.New()
	svc.Start(ctx)
	defer svc.Shutdown()

	if err := app.RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler already mapped typed errors; anything left is fatal
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(exitcodes.InfraErr)
	}
}

func run(ctx *cli.Context) error {
	log, err := logging.NewLogger(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return modrun.NewInfraError(err)
	}

	cfg, err := modrun.NewConfig(ctx, log)
	if err != nil {
		return modrun.NewInfraError(fmt.Errorf("failed to create config: %w", err))
	}

	log.Debugw("Config loaded",
		"catalogue", cfg.CatalogueFile,
		"engine", cfg.EngineBinary,
		"logDir", cfg.LogDir)

	appCtx, cancel := context.WithCancelCause(ctx.Context)
	defer cancel(nil)

	orchestrator, err := modrun.New(appCtx, cfg, Version, func(err error) {
		cancel(err)
	})
	if err != nil {
		return modrun.NewInfraError(fmt.Errorf("failed to create orchestrator: %w", err))
	}

	if err := orchestrator.Start(appCtx); err != nil {
		return err
	}

	if !cfg.RunOnce {
		// Continuous mode: block until interrupted, then drain goroutines
		<-appCtx.Done()
		if err := orchestrator.Stop(context.Background()); err != nil {
			return modrun.NewInfraError(err)
		}
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer waitCancel()
		return orchestrator.WaitForShutdown(waitCtx)
	}

	return nil
}
