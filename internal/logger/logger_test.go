package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLogger(t *testing.T) {
	log := NewLogger("debug", "json")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger("nonsense", "text")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestSimulationLoggerRunStarted(t *testing.T) {
	log, buf := setupTestLogger()
	NewSimulationLogger(log).LogRunStarted("run-1", "ACME", 10000, 5, 8, 42)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "simulation", logEntry["component"])
	assert.Equal(t, "run-1", logEntry["run_id"])
	assert.Equal(t, float64(10000), logEntry["trials"])
	assert.Equal(t, float64(42), logEntry["seed"])
}

func TestSimulationLoggerRunCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	NewSimulationLogger(log).LogRunCompleted("run-1", "ACME", 9990, 10, 40, 23.5, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(9990), logEntry["succeeded"])
	assert.Equal(t, 23.5, logEntry["median_per_share"])
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestSimulationLoggerRunCancelled(t *testing.T) {
	log, buf := setupTestLogger()
	NewSimulationLogger(log).LogRunCancelled("run-1", "ACME", 120, 10000)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, float64(120), logEntry["attempted"])
}

func TestSimulationLoggerFailureAnomaly(t *testing.T) {
	log, buf := setupTestLogger()
	NewSimulationLogger(log).LogFailureAnomaly("run-1", "ACME", 20, 100, 0.05)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, 0.2, logEntry["failed_fraction"])
	assert.Equal(t, 0.05, logEntry["threshold"])
}

func TestSimulationLoggerScenarioValued(t *testing.T) {
	log, buf := setupTestLogger()
	NewSimulationLogger(log).LogScenarioValued("ACME", "bull", 5000, 48.0)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "bull", logEntry["scenario"])
}

func TestMarketDataLoggerFetch(t *testing.T) {
	log, buf := setupTestLogger()
	mdLogger := NewMarketDataLogger(log)

	mdLogger.LogFetch("http", "ACME", "fundamentals", 20*time.Millisecond, nil)
	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "market_data", logEntry["component"])
	assert.Equal(t, "debug", logEntry["level"])

	buf.Reset()
	mdLogger.LogFetch("http", "ACME", "price", 20*time.Millisecond, errors.New("timeout"))
	logEntry = parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "timeout", logEntry["error"])
}

func TestMarketDataLoggerCacheHit(t *testing.T) {
	log, buf := setupTestLogger()
	NewMarketDataLogger(log).LogCacheHit("ACME", 21.4)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, 21.4, logEntry["price"])
}

func TestAuditLogger(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogRunPersisted("run-1", "ACME", 10000, time.Unix(1700000000, 0))
	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, float64(1700000000), logEntry["timestamp"])

	buf.Reset()
	auditLogger.LogPriceOverride("ACME", 19.99)
	logEntry = parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])

	buf.Reset()
	auditLogger.LogExport("run-1", "trials_csv", "/tmp/out.csv")
	logEntry = parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "trials_csv", logEntry["kind"])
}

func BenchmarkSimulationLoggerRunCompleted(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	simLogger := NewSimulationLogger(log)

	for i := 0; i < b.N; i++ {
		simLogger.LogRunCompleted("run-1", "ACME", 9990, 10, 40, 23.5, time.Second)
	}
}
