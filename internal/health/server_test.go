package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/valuation-engine/internal/metrics"
	"github.com/yourusername/valuation-engine/internal/models"
	"github.com/yourusername/valuation-engine/internal/valuation"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeSummaries struct{ summaries []valuation.TickerSummary }

func (f fakeSummaries) LatestSummaries() []valuation.TickerSummary { return f.summaries }

type fakeProvider string

func (f fakeProvider) ProviderName() string { return string(f) }

func readyBody(t *testing.T, rec *httptest.ResponseRecorder) ReadyResponse {
	t.Helper()
	var ready ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	return ready
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := NewServer(Config{ServiceName: "valuator", Version: "1.0.0", Port: "0"})

	rec := serve(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "valuator", health.Service)
	assert.Equal(t, "1.0.0", health.Version)

	rec = serve(t, s, "/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady(t *testing.T) {
	s := NewServer(Config{ServiceName: "valuator", Port: "0", DB: fakePinger{}})

	rec := serve(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = serve(t, s, "/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CheckOK, readyBody(t, rec).Checks["database"])

	s = NewServer(Config{ServiceName: "valuator", Port: "0", DB: fakePinger{err: errors.New("connection refused")}})
	s.SetReady(true)
	rec = serve(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestReadyMarketData(t *testing.T) {
	s := NewServer(Config{ServiceName: "valuator", Port: "0", MarketData: fakeProvider("file")})
	s.SetReady(true)
	rec := serve(t, s, "/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "file", readyBody(t, rec).Checks["market_data"])

	s = NewServer(Config{ServiceName: "valuator", Port: "0", MarketData: fakeProvider("")})
	s.SetReady(true)
	rec = serve(t, s, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CheckNotConfigured, readyBody(t, rec).Checks["market_data"])
}

func TestReadyValuationFreshness(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	valuedAt := now.Add(-30 * time.Hour)
	source := fakeSummaries{summaries: []valuation.TickerSummary{
		{Ticker: "ACME", ValuedAt: valuedAt},
		{Ticker: "GLOBEX", ValuedAt: valuedAt.Add(-time.Hour)},
	}}

	tests := []struct {
		name   string
		source fakeSummaries
		maxAge time.Duration
		code   int
		check  string
	}{
		{"no valuations yet", fakeSummaries{}, 24 * time.Hour, http.StatusOK, CheckNoValuations},
		{"fresh", source, 48 * time.Hour, http.StatusOK, CheckOK},
		{"no limit", source, 0, http.StatusOK, CheckOK},
		{"stale", source, 24 * time.Hour, http.StatusServiceUnavailable, "stale: last run 30h0m0s ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{ServiceName: "valuator", Port: "0", Summaries: tt.source, MaxValuationAge: tt.maxAge})
			s.now = func() time.Time { return now }
			s.SetReady(true)

			rec := serve(t, s, "/ready")
			require.Equal(t, tt.code, rec.Code)
			ready := readyBody(t, rec)
			assert.Equal(t, tt.check, ready.Checks["valuations"])
			if len(tt.source.summaries) > 0 {
				require.NotNil(t, ready.LastValuation)
				assert.True(t, valuedAt.Equal(*ready.LastValuation))
			} else {
				assert.Nil(t, ready.LastValuation)
			}
		})
	}
}

func TestLatestValuations(t *testing.T) {
	source := fakeSummaries{summaries: []valuation.TickerSummary{
		{Ticker: "ACME", RunID: uuid.New(), Summary: models.SummaryStatistics{Succeeded: 100}},
		{Ticker: "GLOBEX", RunID: uuid.New()},
	}}
	s := NewServer(Config{ServiceName: "valuator", Port: "0", Summaries: source})

	rec := serve(t, s, "/valuations/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []valuation.TickerSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	rec = serve(t, s, "/valuations/latest?ticker=acme")
	require.Equal(t, http.StatusOK, rec.Code)
	var one valuation.TickerSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, "ACME", one.Ticker)
	assert.Equal(t, 100, one.Summary.Succeeded)

	rec = serve(t, s, "/valuations/latest?ticker=NONE")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/valuations/latest", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLatestValuationsWithoutSource(t *testing.T) {
	s := NewServer(Config{ServiceName: "valuator", Port: "0"})
	rec := serve(t, s, "/valuations/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.InitRegistry()
	metrics.RecordPriceCacheHit()

	s := NewServer(Config{ServiceName: "valuator", Port: "0", MetricsPath: "/prom"})
	rec := serve(t, s, "/prom")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "valuation_engine_price_cache_hits_total")
}
