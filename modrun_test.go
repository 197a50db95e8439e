package modrun

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/testinfra/modrun/exitcodes"
)

func writeStubEngine(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.sh")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755)
	require.NoError(t, err)
	return path
}

func writeCatalogueFile(t *testing.T, ids ...string) string {
	t.Helper()
	content := "modules:\n"
	for _, id := range ids {
		content += fmt.Sprintf("  - id: %s\n", id)
	}
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func testConfig(t *testing.T, cataloguePath, engineBinary string) *Config {
	t.Helper()
	return &Config{
		CatalogueFile: cataloguePath,
		EngineBinary:  engineBinary,
		WorkDir:       t.TempDir(),
		LogDir:        t.TempDir(),
		Parallelism:   1,
		RunOnce:       true,
		Log:           zap.NewNop().Sugar(),
	}
}

func TestOrchestrator_RunOnce_AllPass(t *testing.T) {
	engine := writeStubEngine(t, "exit 0\n")
	cfg := testConfig(t, writeCatalogueFile(t, "core/a", "core/b"), engine)

	shutdownCalled := make(chan error, 1)
	o, err := New(context.Background(), cfg, "test", func(err error) {
		shutdownCalled <- err
	})
	require.NoError(t, err)

	err = o.Start(context.Background())
	require.NoError(t, err)

	select {
	case err := <-shutdownCalled:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback was not invoked")
	}

	summary := o.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Stats.Total)
	assert.Equal(t, 2, summary.Stats.Passed)
	assert.Equal(t, 0, summary.Stats.Failed)
}

func TestOrchestrator_RunOnce_FailuresYieldModuleFailureError(t *testing.T) {
	engine := writeStubEngine(t, "echo nope; exit 1\n")
	cfg := testConfig(t, writeCatalogueFile(t, "core/a", "core/b", "core/c"), engine)

	o, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)

	err = o.Start(context.Background())
	require.Error(t, err)

	failErr, ok := AsModuleFailureError(err)
	require.True(t, ok, "expected a ModuleFailureError, got %v", err)
	assert.Equal(t, 3, failErr.Count)
	assert.Equal(t, 3, exitcodes.FromFailureCount(failErr.Count))
}

func TestOrchestrator_RunOnce_EmptyCatalogueSucceeds(t *testing.T) {
	engine := writeStubEngine(t, "exit 0\n")
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	require.NoError(t, os.WriteFile(path, []byte("modules: []\n"), 0644))
	cfg := testConfig(t, path, engine)

	shutdownCalled := make(chan error, 1)
	o, err := New(context.Background(), cfg, "test", func(err error) {
		shutdownCalled <- err
	})
	require.NoError(t, err)

	require.NoError(t, o.Start(context.Background()))

	select {
	case <-shutdownCalled:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback was not invoked")
	}

	summary := o.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.Stats.Total)
	assert.Equal(t, 0, summary.Stats.Failed)
}

func TestOrchestrator_ArtifactsExistForAllModules(t *testing.T) {
	// Fail only core/b; artifacts must exist for every module regardless
	engine := writeStubEngine(t, `
for last; do :; done
if [ "$last" = "core/b" ]; then exit 1; fi
exit 0
`)
	cfg := testConfig(t, writeCatalogueFile(t, "core/a", "core/b", "core/c"), engine)

	o, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)

	err = o.Start(context.Background())
	failErr, ok := AsModuleFailureError(err)
	require.True(t, ok)
	assert.Equal(t, 1, failErr.Count)

	summary := o.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, []string{"core/b"}, summary.FailedIDs())
	for _, r := range summary.Results {
		assert.FileExists(t, r.LogPath, "artifact missing for %s", r.Module.ID)
	}
}

func TestOrchestrator_MissingCatalogueIsInfra(t *testing.T) {
	engine := writeStubEngine(t, "exit 0\n")
	cfg := testConfig(t, filepath.Join(t.TempDir(), "nope.yaml"), engine)

	_, err := New(context.Background(), cfg, "test", func(error) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalogue")
}

func TestOrchestrator_NilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, "test", func(error) {})
	require.Error(t, err)
}

func TestOrchestrator_RerunOverwritesPriorArtifacts(t *testing.T) {
	logDir := t.TempDir()

	runOnce := func(script string) *Orchestrator {
		engine := writeStubEngine(t, script)
		cfg := testConfig(t, writeCatalogueFile(t, "core/a"), engine)
		cfg.LogDir = logDir
		o, err := New(context.Background(), cfg, "test", func(error) {})
		require.NoError(t, err)
		require.NoError(t, o.Start(context.Background()))
		return o
	}

	first := runOnce("echo first attempt\nexit 0\n")
	second := runOnce("echo second attempt\nexit 0\n")

	// Same module ID resolves to the same artifact path on every invocation
	firstPath := first.Summary().Results[0].LogPath
	secondPath := second.Summary().Results[0].LogPath
	require.Equal(t, firstPath, secondPath)

	data, err := os.ReadFile(secondPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "second attempt")
	assert.NotContains(t, string(data), "first attempt")

	// Nothing from the first run survives: no per-run directories pile up
	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t,
		[]string{"core_a.log", "failed", "all.log", "summary.log", "summary.json"},
		names)
}

func TestOrchestrator_StoppedAfterRunOnce(t *testing.T) {
	engine := writeStubEngine(t, "exit 0\n")
	cfg := testConfig(t, writeCatalogueFile(t, "core/a"), engine)

	o, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)
	require.NoError(t, o.Start(context.Background()))
	assert.True(t, o.Stopped())

	// A run-once that ends in failures is equally finished
	failing := writeStubEngine(t, "exit 1\n")
	cfg = testConfig(t, writeCatalogueFile(t, "core/a"), failing)
	o, err = New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)
	require.Error(t, o.Start(context.Background()))
	assert.True(t, o.Stopped())
}

func TestOrchestrator_SummaryIsSafeDuringContinuousRuns(t *testing.T) {
	engine := writeStubEngine(t, "exit 0\n")
	cfg := testConfig(t, writeCatalogueFile(t, "core/a"), engine)
	cfg.RunOnce = false
	cfg.RunInterval = 10 * time.Millisecond

	o, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)
	require.NoError(t, o.Start(context.Background()))

	// Read the summary while the periodic goroutine keeps publishing new ones
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		if s := o.Summary(); s != nil {
			assert.Equal(t, 1, s.Stats.Total)
		}
		time.Sleep(time.Millisecond)
	}

	require.NoError(t, o.Stop(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.WaitForShutdown(ctx))
}

func TestOrchestrator_StopIsIdempotent(t *testing.T) {
	engine := writeStubEngine(t, "exit 0\n")
	cfg := testConfig(t, writeCatalogueFile(t, "core/a"), engine)
	cfg.RunOnce = false
	cfg.RunInterval = time.Hour

	o, err := New(context.Background(), cfg, "test", func(error) {})
	require.NoError(t, err)

	require.NoError(t, o.Start(context.Background()))
	assert.False(t, o.Stopped())

	require.NoError(t, o.Stop(context.Background()))
	assert.True(t, o.Stopped())

	// Second stop is a no-op, not a panic on a closed channel
	require.NoError(t, o.Stop(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, o.WaitForShutdown(ctx))
}
