package models

import (
	"github.com/google/uuid"
)

// TrialStatus describes the outcome of a single Monte Carlo trial
type TrialStatus string

const (
	TrialNotRun    TrialStatus = "not_run"
	TrialSucceeded TrialStatus = "succeeded"
	TrialFailed    TrialStatus = "failed"
)

// TrialResult is the record of one trial. Valuation is set only when the trial succeeded.
type TrialResult struct {
	Index       int              `json:"index"`
	Seed        int64            `json:"seed"`
	Status      TrialStatus      `json:"status"`
	Assumptions AssumptionSet    `json:"assumptions"`
	Resolved    bool             `json:"resolved"`
	Resamples   int              `json:"resamples"`
	Valuation   *ValuationResult `json:"valuation,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Succeeded reports whether the trial produced a valuation
func (t TrialResult) Succeeded() bool {
	return t.Status == TrialSucceeded && t.Valuation != nil
}

// SimulationOutput is the full ordered set of trials of one run.
// Trials[i] always holds trial i, whether or not it ran.
type SimulationOutput struct {
	RunID     uuid.UUID     `json:"run_id"`
	Seed      int64         `json:"seed"`
	Horizon   int           `json:"horizon"`
	Trials    []TrialResult `json:"trials"`
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Resolved  int           `json:"resolved"`
	Complete  bool          `json:"complete"`
}

// FailedFraction returns failed / attempted, or 0 when nothing ran
func (o SimulationOutput) FailedFraction() float64 {
	if o.Attempted == 0 {
		return 0
	}
	return float64(o.Failed) / float64(o.Attempted)
}

// PerShareValues returns per-share values of successful trials in trial order
func (o SimulationOutput) PerShareValues() []float64 {
	values := make([]float64, 0, o.Succeeded)
	for _, trial := range o.Trials {
		if trial.Succeeded() {
			values = append(values, trial.Valuation.PerShareValue)
		}
	}
	return values
}

// EnterpriseValues returns enterprise values of successful trials in trial order
func (o SimulationOutput) EnterpriseValues() []float64 {
	values := make([]float64, 0, o.Succeeded)
	for _, trial := range o.Trials {
		if trial.Succeeded() {
			values = append(values, trial.Valuation.EnterpriseValue)
		}
	}
	return values
}

// PercentileBands holds nearest-rank percentiles of a distribution
type PercentileBands struct {
	P5  float64 `json:"p5" csv:"p5"`
	P10 float64 `json:"p10" csv:"p10"`
	P25 float64 `json:"p25" csv:"p25"`
	P50 float64 `json:"p50" csv:"p50"`
	P75 float64 `json:"p75" csv:"p75"`
	P90 float64 `json:"p90" csv:"p90"`
	P95 float64 `json:"p95" csv:"p95"`
}

// DistributionStats summarizes one value distribution
type DistributionStats struct {
	Mean        float64         `json:"mean"`
	Median      float64         `json:"median"`
	StdDev      float64         `json:"std_dev"`
	Min         float64         `json:"min"`
	Max         float64         `json:"max"`
	Percentiles PercentileBands `json:"percentiles"`
	CVaR        float64         `json:"cvar"`
}

// SummaryStatistics is the read-only reduction of a SimulationOutput
type SummaryStatistics struct {
	RunID             uuid.UUID         `json:"run_id"`
	PerShare          DistributionStats `json:"per_share"`
	EnterpriseValue   DistributionStats `json:"enterprise_value"`
	TailProbability   float64           `json:"tail_probability"`
	TailCount         int               `json:"tail_count"`
	MarketPrice       float64           `json:"market_price"`
	UpsideProbability float64           `json:"upside_probability"`
	MarginOfSafety    float64           `json:"margin_of_safety"`
	Trials            int               `json:"trials"`
	Attempted         int               `json:"attempted"`
	Succeeded         int               `json:"succeeded"`
	Failed            int               `json:"failed"`
	Resolved          int               `json:"resolved"`
	Complete          bool              `json:"complete"`
}

// TrialRow is the flat tabular export of one trial
type TrialRow struct {
	Index             int     `csv:"trial"`
	Seed              int64   `csv:"seed"`
	Status            string  `csv:"status"`
	RevenueGrowth     float64 `csv:"revenue_growth"`
	EBITDAMargin      float64 `csv:"ebitda_margin"`
	CapexPct          float64 `csv:"capex_pct"`
	DepreciationPct   float64 `csv:"depreciation_pct"`
	WorkingCapitalPct float64 `csv:"working_capital_pct"`
	TaxRate           float64 `csv:"tax_rate"`
	WACC              float64 `csv:"wacc"`
	TerminalGrowth    float64 `csv:"terminal_growth"`
	Resolved          bool    `csv:"resolved"`
	EnterpriseValue   float64 `csv:"enterprise_value"`
	EquityValue       float64 `csv:"equity_value"`
	PerShareValue     float64 `csv:"per_share_value"`
	Error             string  `csv:"error"`
}

// Row flattens a trial into its tabular form
func (t TrialResult) Row() TrialRow {
	row := TrialRow{
		Index:             t.Index,
		Seed:              t.Seed,
		Status:            string(t.Status),
		RevenueGrowth:     t.Assumptions.RevenueGrowth,
		EBITDAMargin:      t.Assumptions.EBITDAMargin,
		CapexPct:          t.Assumptions.CapexPct,
		DepreciationPct:   t.Assumptions.DepreciationPct,
		WorkingCapitalPct: t.Assumptions.WorkingCapitalPct,
		TaxRate:           t.Assumptions.TaxRate,
		WACC:              t.Assumptions.WACC,
		TerminalGrowth:    t.Assumptions.TerminalGrowth,
		Resolved:          t.Resolved,
		Error:             t.Error,
	}
	if t.Valuation != nil {
		row.EnterpriseValue = t.Valuation.EnterpriseValue
		row.EquityValue = t.Valuation.EquityValue
		row.PerShareValue = t.Valuation.PerShareValue
	}
	return row
}
