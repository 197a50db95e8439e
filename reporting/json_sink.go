package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/testinfra/modrun/types"
)

// JSONModuleResult is the machine-readable form of one module outcome
type JSONModuleResult struct {
	Module   string  `json:"module"`
	Status   string  `json:"status"`
	Duration float64 `json:"duration_seconds"`
	LogPath  string  `json:"log_path"`
	ExitCode int     `json:"exit_code"`
	Error    string  `json:"error,omitempty"`
}

// JSONSummary is the machine-readable form of a full run
type JSONSummary struct {
	RunID     string             `json:"run_id"`
	Status    string             `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	Duration  float64            `json:"duration_seconds"`
	Total     int                `json:"total"`
	Passed    int                `json:"passed"`
	Failed    int                `json:"failed"`
	FailedIDs []string           `json:"failed_modules"`
	Results   []JSONModuleResult `json:"results"`
}

// SummaryJSONSink writes a machine-readable summary.json into the run
// directory, for automation that prefers structure over the exit code alone
type SummaryJSONSink struct {
	outputDir string
}

// NewSummaryJSONSink creates a new JSON summary sink writing to outputDir
func NewSummaryJSONSink(outputDir string) *SummaryJSONSink {
	return &SummaryJSONSink{outputDir: outputDir}
}

// Consume is a no-op; the JSON summary is generated from the final summary
func (s *SummaryJSONSink) Consume(result *types.ModuleResult, runID string) error {
	return nil
}

// Complete writes summary.json from the finalized run summary
func (s *SummaryJSONSink) Complete(summary *types.RunSummary) error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.outputDir, err)
	}

	out := JSONSummary{
		RunID:     summary.RunID,
		Status:    string(summary.Status),
		Timestamp: summary.Stats.EndTime,
		Duration:  summary.Duration.Seconds(),
		Total:     summary.Stats.Total,
		Passed:    summary.Stats.Passed,
		Failed:    summary.Stats.Failed,
		FailedIDs: summary.FailedIDs(),
		Results:   make([]JSONModuleResult, 0, len(summary.Results)),
	}
	for _, r := range summary.Results {
		jr := JSONModuleResult{
			Module:   r.Module.ID,
			Status:   string(r.Status),
			Duration: r.Duration.Seconds(),
			LogPath:  r.LogPath,
			ExitCode: r.ExitCode,
		}
		if r.Error != nil {
			jr.Error = r.Error.Error()
		}
		out.Results = append(out.Results, jr)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	summaryFile := filepath.Join(s.outputDir, "summary.json")
	if err := os.WriteFile(summaryFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}

	return nil
}
