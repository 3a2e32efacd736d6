package montecarlo

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuation-engine/internal/models"
)

func TestWriteTrialsCSV(t *testing.T) {
	sampler := newTestSampler(t, nil)
	output, err := sampler.Run(context.Background(), testState(), testDistributions(), 3, 25, 7)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTrialsCSV(&buf, output))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 26)
	assert.True(t, strings.HasPrefix(lines[0], "trial,seed,status,revenue_growth"))
	assert.True(t, strings.HasPrefix(lines[1], "0,"))
	assert.Contains(t, lines[1], "succeeded")
}

func TestRowsKeepFailedTrials(t *testing.T) {
	output := outputWithValues(5)
	output.Trials = append(output.Trials, models.TrialResult{Index: 1, Status: models.TrialFailed, Error: "degenerate"})

	rows := Rows(output)
	require.Len(t, rows, 2)
	assert.Equal(t, 5.0, rows[0].PerShareValue)
	assert.Equal(t, "failed", rows[1].Status)
	assert.Equal(t, "degenerate", rows[1].Error)
	assert.Zero(t, rows[1].PerShareValue)
}

func TestExportSummaryJSON(t *testing.T) {
	summary, err := Summarize(outputWithValues(oneToTwenty()...), 10, DefaultTailProbability)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "summary.json")
	require.NoError(t, ExportSummaryJSON(summary, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.SummaryStatistics
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, summary, decoded)
}

func TestExportRequiresPath(t *testing.T) {
	assert.Error(t, ExportTrialsCSV(models.SimulationOutput{}, ""))
}
