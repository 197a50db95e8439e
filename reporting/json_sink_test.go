package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryJSONSink_Complete(t *testing.T) {
	outDir := t.TempDir()
	sink := NewSummaryJSONSink(outDir)

	require.NoError(t, sink.Complete(sampleSummary()))

	data, err := os.ReadFile(filepath.Join(outDir, "summary.json"))
	require.NoError(t, err)

	var out JSONSummary
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "run-42", out.RunID)
	assert.Equal(t, "fail", out.Status)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 1, out.Passed)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, []string{"core/b"}, out.FailedIDs)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "core/a", out.Results[0].Module)
	assert.Equal(t, "pass", out.Results[0].Status)
	assert.Empty(t, out.Results[0].Error)
	assert.Equal(t, "core/b", out.Results[1].Module)
	assert.Equal(t, 1, out.Results[1].ExitCode)
	assert.Equal(t, "engine exited with status 1", out.Results[1].Error)
}

func TestSummaryTextSink_Complete(t *testing.T) {
	outDir := t.TempDir()
	sink := NewSummaryTextSink(outDir)

	require.NoError(t, sink.Complete(sampleSummary()))

	data, err := os.ReadFile(filepath.Join(outDir, "summary.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "core/b")
	assert.Contains(t, string(data), "core_b.log")
}
