package types

import (
	"fmt"
	"time"
)

// ModuleStatus represents the possible outcomes of a module execution
type ModuleStatus string

const (
	ModuleStatusPass ModuleStatus = "pass"
	ModuleStatusFail ModuleStatus = "fail"
)

// Module is a single catalogue entry: an opaque identifier naming an
// independently-runnable test group, plus optional per-module overrides.
type Module struct {
	ID string `yaml:"id"`

	// Parallelism overrides the run-wide internal-parallelism hint passed to
	// the test-execution engine for this module only. 0 means no override.
	Parallelism int `yaml:"parallelism,omitempty"`

	// ExtraArgs are appended to the engine invocation before the module ID.
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// ModuleResult captures the outcome of running one module
type ModuleResult struct {
	Module   Module
	Status   ModuleStatus
	Error    error         // Populated for failed modules
	Duration time.Duration // Wall-clock time of the child process
	LogPath  string        // Path to the captured log artifact

	// ExitCode is the child process termination status. -1 when the process
	// never started or terminated abnormally.
	ExitCode int

	// LaunchFailed is true when the engine process could not be started at
	// all (missing binary, permission denied). Still a Failed outcome.
	LaunchFailed bool
}

// RunStats tracks module counts and timing for a full run
type RunStats struct {
	Total     int
	Passed    int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
}

// RunSummary is the aggregate record of one orchestrator invocation.
// Results and Failed preserve catalogue order.
type RunSummary struct {
	RunID    string
	Status   ModuleStatus
	Stats    RunStats
	Duration time.Duration
	Results  []*ModuleResult
	Failed   []*ModuleResult
}

// RecordResult folds one module outcome into the summary
func (s *RunSummary) RecordResult(result *ModuleResult) {
	s.Results = append(s.Results, result)
	s.Stats.Total++
	if result.Status == ModuleStatusPass {
		s.Stats.Passed++
	} else {
		s.Stats.Failed++
		s.Failed = append(s.Failed, result)
	}
}

// Finalize computes the terminal status once every catalogue entry has
// produced exactly one result. An empty run counts as a pass.
func (s *RunSummary) Finalize() {
	s.Stats.EndTime = time.Now()
	if s.Stats.Failed > 0 {
		s.Status = ModuleStatusFail
	} else {
		s.Status = ModuleStatusPass
	}
}

// FailedIDs returns the failed module identifiers in catalogue order
func (s *RunSummary) FailedIDs() []string {
	ids := make([]string, 0, len(s.Failed))
	for _, r := range s.Failed {
		ids = append(ids, r.Module.ID)
	}
	return ids
}

// String returns a single-line human-readable digest of the run
func (s *RunSummary) String() string {
	return fmt.Sprintf("run %s: %d total, %d passed, %d failed in %.1fs",
		s.RunID, s.Stats.Total, s.Stats.Passed, s.Stats.Failed, s.Duration.Seconds())
}
