package reporting

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/testinfra/modrun/types"
)

// TableReporter renders a run summary as a console table
type TableReporter struct {
	title string
}

// NewTableReporter creates a new table reporter with the given title
func NewTableReporter(title string) *TableReporter {
	return &TableReporter{title: title}
}

// Render writes the results table for a run summary to the given writer
func (tr *TableReporter) Render(w io.Writer, summary *types.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if tr.title != "" {
		t.SetTitle("%s (%s)", tr.title, formatDuration(summary.Duration))
	}

	t.AppendHeader(table.Row{
		"Module", "Duration", "Status", "Log",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Module", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Log", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, r := range summary.Results {
		t.AppendRow(table.Row{
			r.Module.ID,
			formatDuration(r.Duration),
			getResultString(r.Status),
			r.LogPath,
		})
	}

	if summary.Status == types.ModuleStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		formatDuration(summary.Duration),
		getResultString(summary.Status),
		fmt.Sprintf("%d/%d passed, %d failed",
			summary.Stats.Passed, summary.Stats.Total, summary.Stats.Failed),
	})

	t.Render()
}
