// Package reporting renders run summaries for humans (console table, text
// summary) and machines (JSON summary).
package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/testinfra/modrun/types"
)

// statusText returns the human-readable form of a module status
func statusText(status types.ModuleStatus) string {
	switch status {
	case types.ModuleStatusPass:
		return "PASS"
	case types.ModuleStatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// getResultString returns a short marked string representing a module result
func getResultString(status types.ModuleStatus) string {
	switch status {
	case types.ModuleStatusPass:
		return "✓ pass"
	default:
		return "✗ fail"
	}
}

// formatDuration formats a duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatSummaryText renders the trailing human-readable summary: counts,
// duration and, when failures exist, each failed module paired with the
// path to its log artifact.
func FormatSummaryText(summary *types.RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "==================================\n")
	fmt.Fprintf(&b, " Run:      %s\n", summary.RunID)
	fmt.Fprintf(&b, " Status:   %s\n", statusText(summary.Status))
	fmt.Fprintf(&b, " Modules:  %d\n", summary.Stats.Total)
	fmt.Fprintf(&b, " Passed:   %d\n", summary.Stats.Passed)
	fmt.Fprintf(&b, " Failed:   %d\n", summary.Stats.Failed)
	fmt.Fprintf(&b, " Duration: %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(&b, "==================================\n")

	if len(summary.Failed) > 0 {
		fmt.Fprintf(&b, "\nFailed modules:\n")
		for _, r := range summary.Failed {
			fmt.Fprintf(&b, "  ✗ %s\n", r.Module.ID)
			if r.Error != nil {
				fmt.Fprintf(&b, "      error: %s\n", firstLine(r.Error.Error()))
			}
			fmt.Fprintf(&b, "      log:   %s\n", r.LogPath)
		}
	}

	return b.String()
}

// firstLine returns the first line of a potentially multi-line string
func firstLine(s string) string {
	if idx := strings.Index(s, "\n"); idx != -1 {
		return s[:idx]
	}
	return s
}
