// Package valuation orchestrates market data, Monte Carlo sampling, aggregation and persistence.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/valuation-engine/internal/forecast"
	"github.com/yourusername/valuation-engine/internal/logger"
	"github.com/yourusername/valuation-engine/internal/marketdata"
	"github.com/yourusername/valuation-engine/internal/metrics"
	"github.com/yourusername/valuation-engine/internal/models"
	"github.com/yourusername/valuation-engine/internal/montecarlo"
	"github.com/yourusername/valuation-engine/internal/repository"
)

// Run statuses reported to metrics
const (
	StatusSuccess   = "success"
	StatusPartial   = "partial"
	StatusFailure   = "failure"
	StatusCancelled = "cancelled"
)

const latestTTL = 24 * time.Hour

// Report is the outcome of one valuation run
type Report struct {
	RunID         uuid.UUID                          `json:"run_id"`
	Ticker        string                             `json:"ticker"`
	State         models.FinancialState              `json:"state"`
	Distributions montecarlo.AssumptionDistributions `json:"distributions"`
	Summary       models.SummaryStatistics           `json:"summary"`
	Scenarios     []ScenarioValuation                `json:"scenarios"`
	RevenueCAGR   *float64                           `json:"revenue_cagr,omitempty"`
	PriceSource   string                             `json:"price_source"`
	StartedAt     time.Time                          `json:"started_at"`
	Duration      time.Duration                      `json:"duration"`
	Output        models.SimulationOutput            `json:"-"`
}

// ForecastReport is the deterministic part of a valuation
type ForecastReport struct {
	Ticker      string                `json:"ticker"`
	State       models.FinancialState `json:"state"`
	Base        models.AssumptionSet  `json:"base"`
	Scenarios   []ScenarioValuation   `json:"scenarios"`
	RevenueCAGR *float64              `json:"revenue_cagr,omitempty"`
}

// Engine orchestrates valuation runs
type Engine struct {
	config     Config
	sampler    *montecarlo.Sampler
	forecaster *forecast.Forecaster
	provider   marketdata.Provider
	runs       repository.ValuationRunRepository
	latest     *cache.Cache
	logger     *logrus.Logger
	simLogger  *logger.SimulationLogger
	audit      *logger.AuditLogger
}

// NewEngine creates a new valuation engine. runs may be nil, in which case
// nothing is persisted.
func NewEngine(cfg Config, provider marketdata.Provider, runs repository.ValuationRunRepository, log *logrus.Logger) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("market data provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if err := cfg.Distributions.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}
	sampler, err := montecarlo.NewSampler(cfg.Sampler)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}
	if len(cfg.Scenarios) == 0 {
		cfg.Scenarios = forecast.DefaultScenarios()
	}

	return &Engine{
		config:     cfg,
		sampler:    sampler,
		forecaster: forecast.NewForecaster(sampler.Config().Domain),
		provider:   provider,
		runs:       runs,
		latest:     cache.New(latestTTL, time.Hour),
		logger:     log,
		simLogger:  logger.NewSimulationLogger(log),
		audit:      logger.NewAuditLogger(log),
	}, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// ProviderName names the market-data provider feeding the engine
func (e *Engine) ProviderName() string {
	return e.provider.Name()
}

// Sampler returns the engine sampler
func (e *Engine) Sampler() *montecarlo.Sampler {
	return e.sampler
}

// Forecast values the deterministic scenarios of ticker at the distribution centers
func (e *Engine) Forecast(ctx context.Context, ticker string) (*ForecastReport, error) {
	state, err := e.provider.FetchFinancialState(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch financial state: %w", err)
	}
	return e.forecast(ticker, state)
}

func (e *Engine) forecast(ticker string, state models.FinancialState) (*ForecastReport, error) {
	base := e.config.Distributions.Base()
	scenarios, err := ValueScenarios(e.forecaster, state, base, e.config.Scenarios, e.config.Horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to value scenarios: %w", err)
	}
	for _, s := range scenarios {
		e.simLogger.LogScenarioValued(ticker, s.Name, s.Valuation.EnterpriseValue, s.Valuation.PerShareValue)
	}

	report := &ForecastReport{Ticker: ticker, State: state, Base: base, Scenarios: scenarios}
	if len(state.RevenueHistory) >= 2 {
		if cagr, err := forecast.CAGR(state.RevenueHistory); err == nil {
			report.RevenueCAGR = &cagr
		}
	}
	return report, nil
}

// Run executes a full Monte Carlo valuation of ticker.
//
// A run whose failed-trial fraction exceeds the alert threshold still
// returns its report, together with an error wrapping
// models.ErrFailureThresholdExceeded. A cancelled run returns the partial
// report and no error as long as at least one trial succeeded.
func (e *Engine) Run(ctx context.Context, ticker string) (*Report, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	started := time.Now()
	runID := uuid.New()

	report, runErr := e.run(ctx, runID, ticker, started)
	duration := time.Since(started)

	status := StatusSuccess
	switch {
	case report == nil:
		status = StatusFailure
	case !report.Summary.Complete:
		status = StatusCancelled
	case runErr != nil:
		status = StatusPartial
	}
	metrics.RecordRun(ticker, status, duration.Seconds())

	if report == nil {
		e.logger.WithError(runErr).WithFields(logrus.Fields{"run_id": runID.String(), "ticker": ticker}).Error("Valuation run failed")
		return nil, runErr
	}

	report.Duration = duration
	e.latest.SetDefault(ticker, report)
	e.simLogger.LogRunCompleted(runID.String(), ticker, report.Summary.Succeeded, report.Summary.Failed, report.Summary.Resolved, report.Summary.PerShare.Median, duration)
	return report, runErr
}

func (e *Engine) run(ctx context.Context, runID uuid.UUID, ticker string, started time.Time) (*Report, error) {
	state, err := e.provider.FetchFinancialState(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch financial state: %w", err)
	}

	price, source, err := e.marketPrice(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market price: %w", err)
	}

	e.simLogger.LogRunStarted(runID.String(), ticker, e.config.Trials, e.config.Horizon, e.sampler.Config().Workers, e.config.Seed)

	output, runErr := e.sampler.Run(ctx, state, e.config.Distributions, e.config.Horizon, e.config.Trials, e.config.Seed)
	if runErr != nil && !errors.Is(runErr, models.ErrFailureThresholdExceeded) {
		return nil, runErr
	}
	output.RunID = runID
	metrics.RecordTrials(output.Succeeded, output.Failed, output.Resolved)

	if runErr != nil {
		e.simLogger.LogFailureAnomaly(runID.String(), ticker, output.Failed, output.Attempted, e.sampler.Config().FailureAlertThreshold)
	}
	if !output.Complete {
		e.simLogger.LogRunCancelled(runID.String(), ticker, output.Attempted, e.config.Trials)
	}

	summary, err := montecarlo.Summarize(output, price, e.config.TailProbability)
	if err != nil {
		if errors.Is(err, models.ErrEmptySimulation) && runErr != nil {
			return nil, fmt.Errorf("%w: %v", err, runErr)
		}
		return nil, err
	}

	report := &Report{
		RunID:         runID,
		Ticker:        ticker,
		State:         state,
		Distributions: e.config.Distributions,
		Summary:       summary,
		PriceSource:   source,
		StartedAt:     started,
		Output:        output,
	}

	if fc, err := e.forecast(ticker, state); err != nil {
		e.logger.WithError(err).WithField("ticker", ticker).Warn("Scenario valuation skipped")
	} else {
		report.Scenarios = fc.Scenarios
		report.RevenueCAGR = fc.RevenueCAGR
	}

	metrics.UpdateValuation(ticker, metrics.ValuationSnapshot{
		MedianPerShare:    summary.PerShare.Median,
		CVaRPerShare:      summary.PerShare.CVaR,
		UpsideProbability: summary.UpsideProbability,
		MarginOfSafety:    summary.MarginOfSafety,
		MarketPrice:       price,
		FailedFraction:    output.FailedFraction(),
	})

	if err := e.persist(ctx, report); err != nil {
		return report, errors.Join(err, runErr)
	}
	if err := e.export(report); err != nil {
		return report, errors.Join(err, runErr)
	}
	return report, runErr
}

// marketPrice returns the configured override, or the provider's price
func (e *Engine) marketPrice(ctx context.Context, ticker string) (float64, string, error) {
	if e.config.PriceOverride > 0 {
		e.audit.LogPriceOverride(ticker, e.config.PriceOverride)
		return e.config.PriceOverride, "override", nil
	}
	price, err := e.provider.FetchMarketPrice(ctx, ticker)
	if err != nil {
		return 0, "", err
	}
	return price, e.provider.Name(), nil
}

func (e *Engine) persist(ctx context.Context, report *Report) error {
	if e.runs == nil {
		return nil
	}
	run := NewValuationRun(report)

	var err error
	trialRows := 0
	if e.config.PersistTrials {
		rows := montecarlo.Rows(report.Output)
		trialRows = len(rows)
		err = e.runs.SaveWithTrials(ctx, run, rows)
	} else {
		err = e.runs.Save(ctx, run)
	}
	if err != nil {
		return fmt.Errorf("failed to persist valuation run: %w", err)
	}
	e.audit.LogRunPersisted(run.ID.String(), run.Ticker, trialRows, run.CreatedAt)
	return nil
}

func (e *Engine) export(report *Report) error {
	if e.config.OutputDir == "" {
		return nil
	}
	paths, err := ExportReport(report, e.config.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to export valuation run: %w", err)
	}
	for kind, path := range paths {
		e.audit.LogExport(report.RunID.String(), kind, path)
	}
	return nil
}

// Latest returns the most recent in-memory report for ticker
func (e *Engine) Latest(ticker string) (*Report, bool) {
	value, found := e.latest.Get(strings.ToUpper(strings.TrimSpace(ticker)))
	if !found {
		return nil, false
	}
	report, ok := value.(*Report)
	return report, ok
}

// LatestSummaries returns the most recent summary of every valued ticker, ordered by ticker
func (e *Engine) LatestSummaries() []TickerSummary {
	items := e.latest.Items()
	summaries := make([]TickerSummary, 0, len(items))
	for ticker, item := range items {
		report, ok := item.Object.(*Report)
		if !ok {
			continue
		}
		summaries = append(summaries, TickerSummary{
			Ticker:    ticker,
			RunID:     report.RunID,
			ValuedAt:  report.StartedAt,
			Summary:   report.Summary,
			Scenarios: report.Scenarios,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Ticker < summaries[j].Ticker
	})
	return summaries
}

// TickerSummary is the serving view of the latest run of one ticker
type TickerSummary struct {
	Ticker    string                   `json:"ticker"`
	RunID     uuid.UUID                `json:"run_id"`
	ValuedAt  time.Time                `json:"valued_at"`
	Summary   models.SummaryStatistics `json:"summary"`
	Scenarios []ScenarioValuation      `json:"scenarios,omitempty"`
}
