package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRunPersisted records a valuation run written to storage.
func (al *AuditLogger) LogRunPersisted(runID, ticker string, trialRows int, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":     runID,
		"ticker":     ticker,
		"trial_rows": trialRows,
		"timestamp":  timestamp.Unix(),
	}).Info("Valuation run persisted")
}

// LogPriceOverride records a manually supplied market price.
func (al *AuditLogger) LogPriceOverride(ticker string, price float64) {
	al.WithFields(logrus.Fields{
		"ticker": ticker,
		"price":  price,
	}).Warn("Market price overridden")
}

// LogExport records an export file written to disk.
func (al *AuditLogger) LogExport(runID, kind, path string) {
	al.WithFields(logrus.Fields{
		"run_id": runID,
		"kind":   kind,
		"path":   path,
	}).Info("Valuation export written")
}
