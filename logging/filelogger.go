package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/testinfra/modrun/reporting"
	"github.com/testinfra/modrun/types"
)

// ArtifactSuffix is appended to the sanitized module ID to form the
// artifact file name
const ArtifactSuffix = ".log"

// ResultSink is an interface for different ways of consuming module results
type ResultSink interface {
	// Consume processes a single module result
	Consume(result *types.ModuleResult, runID string) error
	// Complete is called when all results have been consumed
	Complete(summary *types.RunSummary) error
}

// FileLogger owns the on-disk layout for module logs: one artifact per
// module directly under the log directory, a failed/ directory with copies
// of failing artifacts, and the combined and summary files produced by the
// sinks. Artifact paths depend only on the module ID, so a re-run against
// the same log directory overwrites the previous run's files; nothing
// beyond the last run is retained.
type FileLogger struct {
	baseDir      string                // Log directory holding all artifacts
	failedDir    string                // Directory for failed module artifacts
	allLogsFile  string                // Path to the combined log file
	mu           sync.Mutex            // Protects concurrent file operations
	sinks        []ResultSink          // Collection of result consumers
	asyncWriters map[string]*AsyncFile // Map of async file writers
	runID        string                // Current run ID
}

// NewFileLogger creates a new FileLogger rooted at baseDir for the given run.
// The failed/ directory is reset so it only ever reflects the latest run.
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	failedDir := filepath.Join(baseDir, "failed")
	allLogsFile := filepath.Join(baseDir, "all.log")

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", baseDir, err)
	}
	// Stale failed copies from a prior run must not outlive it
	if err := os.RemoveAll(failedDir); err != nil {
		return nil, fmt.Errorf("failed to reset directory %s: %w", failedDir, err)
	}
	if err := os.MkdirAll(failedDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", failedDir, err)
	}

	logger := &FileLogger{
		baseDir:      baseDir,
		failedDir:    failedDir,
		allLogsFile:  allLogsFile,
		sinks:        make([]ResultSink, 0),
		asyncWriters: make(map[string]*AsyncFile),
		runID:        runID,
	}

	logger.sinks = append(logger.sinks, &AllLogsFileSink{logger: logger})
	logger.sinks = append(logger.sinks, &FailedCopySink{logger: logger})
	logger.sinks = append(logger.sinks, reporting.NewSummaryTextSink(baseDir))
	logger.sinks = append(logger.sinks, reporting.NewSummaryJSONSink(baseDir))

	return logger, nil
}

// SafeFilename maps a free-form module ID to a deterministic, collision-safe
// file name. Path-separator-like and otherwise unsafe characters become "_".
func SafeFilename(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	s = strings.ReplaceAll(s, "?", "_")
	s = strings.ReplaceAll(s, "\"", "_")
	s = strings.ReplaceAll(s, "<", "_")
	s = strings.ReplaceAll(s, ">", "_")
	s = strings.ReplaceAll(s, "|", "_")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "...", "")
	return s
}

// ArtifactPath returns the artifact path for a module. The path is a pure
// function of the log directory and module ID, stable across invocations.
func (l *FileLogger) ArtifactPath(module types.Module) string {
	return filepath.Join(l.baseDir, SafeFilename(module.ID)+ArtifactSuffix)
}

// OpenArtifact creates (or truncates) the artifact file for a module.
// The caller owns the returned file and must close it.
func (l *FileLogger) OpenArtifact(module types.Module) (*os.File, error) {
	path := l.ArtifactPath(module)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact %s: %w", path, err)
	}
	return f, nil
}

// LogModuleResult processes a module result through all registered sinks
func (l *FileLogger) LogModuleResult(result *types.ModuleResult) error {
	for _, sink := range l.sinks {
		if err := sink.Consume(result, l.runID); err != nil {
			return fmt.Errorf("error in sink: %w", err)
		}
	}
	return nil
}

// Complete signals that all results are in. Sinks flush their outputs and
// all async writers are closed.
func (l *FileLogger) Complete(summary *types.RunSummary) error {
	var firstErr error
	for _, sink := range l.sinks {
		if err := sink.Complete(summary); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error completing sink: %w", err)
		}
	}
	l.closeAllWriters()
	return firstErr
}

// getAsyncWriter gets or creates an AsyncFile for the given path
func (l *FileLogger) getAsyncWriter(path string) (*AsyncFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if writer, exists := l.asyncWriters[path]; exists {
		return writer, nil
	}

	writer, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}

	l.asyncWriters[path] = writer
	return writer, nil
}

// closeAllWriters closes all async writers
func (l *FileLogger) closeAllWriters() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, writer := range l.asyncWriters {
		_ = writer.Close() // Ignore errors on close
	}
	l.asyncWriters = make(map[string]*AsyncFile)
}

// GetRunID returns the run ID this logger was created for
func (l *FileLogger) GetRunID() string {
	return l.runID
}

// GetBaseDir returns the log directory holding all artifacts
func (l *FileLogger) GetBaseDir() string {
	return l.baseDir
}

// GetFailedDir returns the directory holding failed module artifacts
func (l *FileLogger) GetFailedDir() string {
	return l.failedDir
}

// GetAllLogsFile returns the path to the combined log file
func (l *FileLogger) GetAllLogsFile() string {
	return l.allLogsFile
}

// copyFile copies src to dst, truncating dst if it exists
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Sync()
}
