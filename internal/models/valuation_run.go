package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ValuationRun represents a persisted Monte Carlo valuation run
type ValuationRun struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	Ticker            string          `db:"ticker" json:"ticker"`
	RunDate           time.Time       `db:"run_date" json:"run_date"`
	Seed              int64           `db:"seed" json:"seed"`
	Horizon           int             `db:"horizon" json:"horizon"`
	Trials            int             `db:"trials" json:"trials"`
	SucceededTrials   int             `db:"succeeded_trials" json:"succeeded_trials"`
	FailedTrials      int             `db:"failed_trials" json:"failed_trials"`
	ResolvedTrials    int             `db:"resolved_trials" json:"resolved_trials"`
	Complete          bool            `db:"complete" json:"complete"`
	MarketPrice       float64         `db:"market_price" json:"market_price"`
	MeanPerShare      float64         `db:"mean_per_share" json:"mean_per_share"`
	MedianPerShare    float64         `db:"median_per_share" json:"median_per_share"`
	CVaRPerShare      float64         `db:"cvar_per_share" json:"cvar_per_share"`
	MedianEV          float64         `db:"median_ev" json:"median_ev"`
	UpsideProbability float64         `db:"upside_probability" json:"upside_probability"`
	Assumptions       json.RawMessage `db:"assumptions" json:"assumptions"`
	Summary           json.RawMessage `db:"summary" json:"summary"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}
