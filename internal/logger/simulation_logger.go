package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// SimulationLogger provides dedicated logging for Monte Carlo runs.
type SimulationLogger struct {
	*logrus.Entry
}

// NewSimulationLogger creates a new simulation logger.
func NewSimulationLogger(baseLogger *logrus.Logger) *SimulationLogger {
	return &SimulationLogger{
		Entry: baseLogger.WithField("component", "simulation"),
	}
}

// LogRunStarted logs the start of a valuation run.
func (sl *SimulationLogger) LogRunStarted(runID, ticker string, trials, horizon, workers int, seed int64) {
	sl.WithFields(logrus.Fields{
		"run_id":  runID,
		"ticker":  ticker,
		"trials":  trials,
		"horizon": horizon,
		"workers": workers,
		"seed":    seed,
	}).Info("Valuation run started")
}

// LogRunCompleted logs a finished valuation run.
func (sl *SimulationLogger) LogRunCompleted(runID, ticker string, succeeded, failed, resolved int, medianPerShare float64, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"run_id":           runID,
		"ticker":           ticker,
		"succeeded":        succeeded,
		"failed":           failed,
		"resolved":         resolved,
		"median_per_share": medianPerShare,
		"duration_ms":      duration.Milliseconds(),
	}).Info("Valuation run completed")
}

// LogRunCancelled logs a run stopped before every trial ran.
func (sl *SimulationLogger) LogRunCancelled(runID, ticker string, attempted, trials int) {
	sl.WithFields(logrus.Fields{
		"run_id":    runID,
		"ticker":    ticker,
		"attempted": attempted,
		"trials":    trials,
	}).Warn("Valuation run cancelled")
}

// LogFailureAnomaly logs a run whose failed-trial share crossed the alert threshold.
func (sl *SimulationLogger) LogFailureAnomaly(runID, ticker string, failed, attempted int, threshold float64) {
	fraction := 0.0
	if attempted > 0 {
		fraction = float64(failed) / float64(attempted)
	}
	sl.WithFields(logrus.Fields{
		"run_id":          runID,
		"ticker":          ticker,
		"failed":          failed,
		"attempted":       attempted,
		"failed_fraction": fraction,
		"threshold":       threshold,
	}).Warn("Failed trial fraction above alert threshold")
}

// LogScenarioValued logs a deterministic scenario valuation.
func (sl *SimulationLogger) LogScenarioValued(ticker, scenario string, enterpriseValue, perShare float64) {
	sl.WithFields(logrus.Fields{
		"ticker":           ticker,
		"scenario":         scenario,
		"enterprise_value": enterpriseValue,
		"per_share_value":  perShare,
	}).Info("Scenario valued")
}
