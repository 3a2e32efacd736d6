// Package health serves health probes, Prometheus metrics and the latest valuations over HTTP.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/valuation-engine/internal/metrics"
	"github.com/yourusername/valuation-engine/internal/valuation"
)

// DatabasePinger checks the run store connection.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// SummarySource exposes the latest valuation summaries.
type SummarySource interface {
	LatestSummaries() []valuation.TickerSummary
}

// ProviderNamer names the market-data provider in use.
type ProviderNamer interface {
	ProviderName() string
}

// Check results reported by /ready.
const (
	CheckOK            = "ok"
	CheckNotReady      = "not_ready"
	CheckNoValuations  = "none"
	CheckNotConfigured = "not_configured"
)

// HealthResponse is the body of /health and /live.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse is the body of /ready. LastValuation is the newest
// valuation time across tickers, when any run has completed.
type ReadyResponse struct {
	Status        string            `json:"status"`
	Service       string            `json:"service"`
	Checks        map[string]string `json:"checks,omitempty"`
	LastValuation *time.Time        `json:"last_valuation,omitempty"`
	Duration      string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health server.
//
// MaxValuationAge > 0 marks the service not ready once the newest valuation
// is older than that age. A service that has not valued anything yet stays
// ready so the first scheduled run can populate the cache.
type Config struct {
	ServiceName     string
	Version         string
	Commit          string
	Port            string
	Logger          *logrus.Logger
	DB              DatabasePinger
	Summaries       SummarySource
	MarketData      ProviderNamer
	MaxValuationAge time.Duration
	MetricsPath     string
}

// Server serves probes, metrics and valuations.
type Server struct {
	cfg    Config
	server *http.Server
	now    func() time.Time

	mu    sync.RWMutex
	ready bool
}

// NewServer creates a new health server. The port falls back to HEALTH_PORT, then 8080.
func NewServer(cfg Config) *Server {
	if cfg.Port == "" {
		cfg.Port = os.Getenv("HEALTH_PORT")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Server{cfg: cfg, now: time.Now}
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is marked ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/valuations/latest", s.handleLatest)
	mux.Handle(s.cfg.MetricsPath, metrics.Handler())
	return mux
}

// Start listens in the background until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.log().WithField("port", s.cfg.Port).Info("HTTP server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log().WithError(err).Error("HTTP server error")
		}
	}()
	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	s.log().Info("HTTP server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) log() *logrus.Entry {
	if s.cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return logrus.NewEntry(l)
	}
	return s.cfg.Logger.WithField("service", s.cfg.ServiceName)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    CheckOK,
		Service:   s.cfg.ServiceName,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
		Commit:    s.cfg.Commit,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: CheckOK, Service: s.cfg.ServiceName})
}

// handleReady reports the service flag, run store, market-data provider
// and valuation freshness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := s.now()
	checks := map[string]string{"service": CheckOK}
	ready := true

	if !s.IsReady() {
		checks["service"] = CheckNotReady
		ready = false
	}

	if s.cfg.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.cfg.DB.Ping(ctx); err != nil {
			checks["database"] = fmt.Sprintf("error: %v", err)
			ready = false
		} else {
			checks["database"] = CheckOK
		}
	}

	if s.cfg.MarketData != nil {
		if name := s.cfg.MarketData.ProviderName(); name != "" {
			checks["market_data"] = name
		} else {
			checks["market_data"] = CheckNotConfigured
			ready = false
		}
	}

	var last *time.Time
	if s.cfg.Summaries != nil {
		var ok bool
		last, ok = s.valuationFreshness(checks)
		ready = ready && ok
	}

	status, code := CheckOK, http.StatusOK
	if !ready {
		status, code = CheckNotReady, http.StatusServiceUnavailable
	}
	writeJSON(w, code, ReadyResponse{
		Status:        status,
		Service:       s.cfg.ServiceName,
		Checks:        checks,
		LastValuation: last,
		Duration:      s.now().Sub(start).String(),
	})
}

// valuationFreshness records the valuations check and returns the newest
// valuation time and whether it is within MaxValuationAge.
func (s *Server) valuationFreshness(checks map[string]string) (*time.Time, bool) {
	var newest time.Time
	for _, summary := range s.cfg.Summaries.LatestSummaries() {
		if summary.ValuedAt.After(newest) {
			newest = summary.ValuedAt
		}
	}
	if newest.IsZero() {
		checks["valuations"] = CheckNoValuations
		return nil, true
	}

	age := s.now().Sub(newest)
	if s.cfg.MaxValuationAge > 0 && age > s.cfg.MaxValuationAge {
		checks["valuations"] = fmt.Sprintf("stale: last run %s ago", age.Truncate(time.Second))
		return &newest, false
	}
	checks["valuations"] = CheckOK
	return &newest, true
}

// handleLatest serves the latest summaries; ?ticker= narrows to one.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	summaries := []valuation.TickerSummary{}
	if s.cfg.Summaries != nil {
		summaries = s.cfg.Summaries.LatestSummaries()
	}

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		writeJSON(w, http.StatusOK, summaries)
		return
	}
	for _, summary := range summaries {
		if summary.Ticker == ticker {
			writeJSON(w, http.StatusOK, summary)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "no valuation for " + ticker})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
