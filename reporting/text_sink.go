package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/testinfra/modrun/types"
)

// SummaryTextSink writes the plain-text run summary into the run directory
type SummaryTextSink struct {
	outputDir string
}

// NewSummaryTextSink creates a new text summary sink writing to outputDir
func NewSummaryTextSink(outputDir string) *SummaryTextSink {
	return &SummaryTextSink{outputDir: outputDir}
}

// Consume is a no-op; the text summary is generated from the final summary
func (s *SummaryTextSink) Consume(result *types.ModuleResult, runID string) error {
	return nil
}

// Complete writes summary.log from the finalized run summary
func (s *SummaryTextSink) Complete(summary *types.RunSummary) error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.outputDir, err)
	}

	content := FormatSummaryText(summary)

	summaryFile := filepath.Join(s.outputDir, "summary.log")
	if err := os.WriteFile(summaryFile, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}

	return nil
}
