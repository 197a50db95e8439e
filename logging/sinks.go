package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/testinfra/modrun/types"
)

// maxInlineLogBytes bounds how much of a module's artifact is inlined into
// the combined all.log file. The full output always lives in the artifact.
const maxInlineLogBytes = 256 * 1024

// AllLogsFileSink writes every module's output to a single "all.log" file
type AllLogsFileSink struct {
	logger *FileLogger
}

// Consume appends a module result and its captured output to all.log
func (s *AllLogsFileSink) Consume(result *types.ModuleResult, runID string) error {
	writer, err := s.logger.getAsyncWriter(s.logger.allLogsFile)
	if err != nil {
		return err
	}

	var content strings.Builder

	fmt.Fprintf(&content, "\n")
	fmt.Fprintf(&content, "┌─────────────────────────────────────────────────────────────────────┐\n")
	fmt.Fprintf(&content, "│ MODULE: %-62s │\n", truncateString(result.Module.ID, 62))
	fmt.Fprintf(&content, "├─────────────────────────────────────────────────────────────────────┤\n")
	fmt.Fprintf(&content, "│ Status:   %-60s │\n", result.Status)
	fmt.Fprintf(&content, "│ Duration: %-60s │\n", result.Duration)
	fmt.Fprintf(&content, "│ Log:      %-60s │\n", truncateString(result.LogPath, 60))
	fmt.Fprintf(&content, "│ Time:     %-60s │\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&content, "└─────────────────────────────────────────────────────────────────────┘\n\n")

	if result.Error != nil {
		fmt.Fprintf(&content, "ERROR:\n")
		fmt.Fprintf(&content, "~~~~~~\n")
		fmt.Fprintf(&content, "%s\n\n", result.Error.Error())
	}

	output, truncated := readArtifactTail(result.LogPath, maxInlineLogBytes)
	if output != "" {
		fmt.Fprintf(&content, "OUTPUT:\n")
		fmt.Fprintf(&content, "~~~~~~~\n")
		if truncated {
			fmt.Fprintf(&content, "  [output truncated, full log at %s]\n", result.LogPath)
		}
		fmt.Fprintf(&content, "%s\n", indentText(stripansi.Strip(output), "  "))
	}

	fmt.Fprintf(&content, "\n")

	return writer.Write([]byte(content.String()))
}

// Complete is a no-op for AllLogsFileSink
func (s *AllLogsFileSink) Complete(summary *types.RunSummary) error {
	return nil
}

// FailedCopySink copies the artifacts of failed modules into the failed/
// directory so a human can inspect failures without scanning the full run
type FailedCopySink struct {
	logger *FileLogger
}

// Consume copies the artifact of a failed module into failed/
func (s *FailedCopySink) Consume(result *types.ModuleResult, runID string) error {
	if result.Status != types.ModuleStatusFail {
		return nil
	}
	if result.LogPath == "" {
		return nil
	}

	dst := filepath.Join(s.logger.failedDir, filepath.Base(result.LogPath))
	if err := copyFile(result.LogPath, dst); err != nil {
		return fmt.Errorf("failed to copy artifact for %s: %w", result.Module.ID, err)
	}
	return nil
}

// Complete is a no-op for FailedCopySink
func (s *FailedCopySink) Complete(summary *types.RunSummary) error {
	return nil
}

// readArtifactTail reads up to maxBytes from the end of an artifact file.
// A missing artifact is not an error here; the result already carries one.
func readArtifactTail(path string, maxBytes int64) (string, bool) {
	if path == "" {
		return "", false
	}

	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", false
	}

	truncated := false
	if info.Size() > maxBytes {
		if _, err := f.Seek(info.Size()-maxBytes, 0); err != nil {
			return "", false
		}
		truncated = true
	}

	data := make([]byte, min(info.Size(), maxBytes))
	n, _ := f.Read(data)
	return string(data[:n]), truncated
}

// indentText adds indentation to each line of text for better readability
func indentText(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// truncateString truncates a string to the specified max length
// and adds an ellipsis if needed
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
