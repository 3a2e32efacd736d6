package valuation

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/valuation-engine/internal/models"
	"github.com/yourusername/valuation-engine/internal/montecarlo"
)

// Export kinds
const (
	ExportTrials  = "trials_csv"
	ExportSummary = "summary_json"
)

// NewValuationRun converts a report into its persisted form
func NewValuationRun(report *Report) *models.ValuationRun {
	summary := report.Summary
	now := time.Now().UTC()
	return &models.ValuationRun{
		ID:                report.RunID,
		Ticker:            report.Ticker,
		RunDate:           report.StartedAt.UTC(),
		Seed:              report.Output.Seed,
		Horizon:           report.Output.Horizon,
		Trials:            summary.Trials,
		SucceededTrials:   summary.Succeeded,
		FailedTrials:      summary.Failed,
		ResolvedTrials:    summary.Resolved,
		Complete:          summary.Complete,
		MarketPrice:       summary.MarketPrice,
		MeanPerShare:      summary.PerShare.Mean,
		MedianPerShare:    summary.PerShare.Median,
		CVaRPerShare:      summary.PerShare.CVaR,
		MedianEV:          summary.EnterpriseValue.Median,
		UpsideProbability: summary.UpsideProbability,
		Assumptions:       mustMarshalJSON(report.Distributions),
		Summary:           mustMarshalJSON(summary),
		CreatedAt:         now,
	}
}

// ExportReport writes the per-trial CSV and the summary JSON of report into
// dir and returns the written paths keyed by export kind.
func ExportReport(report *Report, dir string) (map[string]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	prefix := fmt.Sprintf("%s_%s", strings.ToLower(report.Ticker), report.RunID.String()[:8])
	paths := map[string]string{
		ExportTrials:  filepath.Join(dir, prefix+"_trials.csv"),
		ExportSummary: filepath.Join(dir, prefix+"_summary.json"),
	}

	if err := montecarlo.ExportTrialsCSV(report.Output, paths[ExportTrials]); err != nil {
		return nil, err
	}
	if err := montecarlo.ExportSummaryJSON(report.Summary, paths[ExportSummary]); err != nil {
		return nil, err
	}
	return paths, nil
}

func mustMarshalJSON(value any) json.RawMessage {
	data, _ := json.Marshal(value)
	return data
}
