// Package metrics provides the centralized Prometheus metrics registry for the valuation engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "valuation_engine"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Total number of valuation runs by ticker and status",
	}, []string{"ticker", "status"})
	TrialsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trials_total",
		Help:      "Total number of Monte Carlo trials by status",
	}, []string{"status"})
	ResolvedTrialsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolved_trials_total",
		Help:      "Total number of trials whose degenerate discount rate was resolved",
	})
	MarketDataRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "market_data_requests_total",
		Help:      "Total number of market data requests by provider, resource and status",
	}, []string{"provider", "resource", "status"})
	PriceCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "price_cache_hits_total",
		Help:      "Total number of market prices served from cache",
	})
	ScheduledRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_runs_total",
		Help:      "Total number of scheduled revaluations by status",
	}, []string{"status"})
)

// Histogram metrics
var (
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of valuation runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
	})
	MarketDataLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "market_data_latency_seconds",
		Help:      "Latency of market data requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "resource"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RunsTotal)
		registry.MustRegister(TrialsTotal)
		registry.MustRegister(ResolvedTrialsTotal)
		registry.MustRegister(MarketDataRequestsTotal)
		registry.MustRegister(PriceCacheHitsTotal)
		registry.MustRegister(ScheduledRunsTotal)

		registry.MustRegister(RunDuration)
		registry.MustRegister(MarketDataLatency)

		registry.MustRegister(PerShareMedian)
		registry.MustRegister(PerShareCVaR)
		registry.MustRegister(UpsideProbability)
		registry.MustRegister(MarginOfSafety)
		registry.MustRegister(MarketPrice)
		registry.MustRegister(FailedTrialFraction)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRun records a valuation run outcome.
// status should be one of: "success", "partial", "failure", "cancelled"
func RecordRun(ticker, status string, durationSeconds float64) {
	RunsTotal.WithLabelValues(ticker, status).Inc()
	RunDuration.Observe(durationSeconds)
}

// RecordTrials records the trial counters of one run.
func RecordTrials(succeeded, failed, resolved int) {
	TrialsTotal.WithLabelValues("succeeded").Add(float64(succeeded))
	TrialsTotal.WithLabelValues("failed").Add(float64(failed))
	ResolvedTrialsTotal.Add(float64(resolved))
}

// RecordMarketDataRequest records a provider call.
func RecordMarketDataRequest(provider, resource string, err error, durationSeconds float64) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	MarketDataRequestsTotal.WithLabelValues(provider, resource, status).Inc()
	MarketDataLatency.WithLabelValues(provider, resource).Observe(durationSeconds)
}

// RecordPriceCacheHit records a cached price lookup.
func RecordPriceCacheHit() {
	PriceCacheHitsTotal.Inc()
}

// RecordScheduledRun records a scheduled revaluation.
func RecordScheduledRun(status string) {
	ScheduledRunsTotal.WithLabelValues(status).Inc()
}
