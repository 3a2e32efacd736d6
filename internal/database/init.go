package database

import (
	"context"
	"fmt"

	"github.com/yourusername/valuation-engine/internal/config"
)

// Schema creates the valuation tables when missing
const Schema = `
CREATE TABLE IF NOT EXISTS valuation_runs (
	id                 UUID PRIMARY KEY,
	ticker             TEXT NOT NULL,
	run_date           TIMESTAMPTZ NOT NULL,
	seed               BIGINT NOT NULL,
	horizon            INTEGER NOT NULL,
	trials             INTEGER NOT NULL,
	succeeded_trials   INTEGER NOT NULL,
	failed_trials      INTEGER NOT NULL,
	resolved_trials    INTEGER NOT NULL,
	complete           BOOLEAN NOT NULL,
	market_price       DOUBLE PRECISION NOT NULL,
	mean_per_share     DOUBLE PRECISION NOT NULL,
	median_per_share   DOUBLE PRECISION NOT NULL,
	cvar_per_share     DOUBLE PRECISION NOT NULL,
	median_ev          DOUBLE PRECISION NOT NULL,
	upside_probability DOUBLE PRECISION NOT NULL,
	assumptions        JSONB NOT NULL,
	summary            JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_valuation_runs_ticker_date ON valuation_runs (ticker, run_date DESC);

CREATE TABLE IF NOT EXISTS valuation_trials (
	run_id              UUID NOT NULL REFERENCES valuation_runs(id) ON DELETE CASCADE,
	trial               INTEGER NOT NULL,
	seed                BIGINT NOT NULL,
	status              TEXT NOT NULL,
	revenue_growth      DOUBLE PRECISION NOT NULL,
	ebitda_margin       DOUBLE PRECISION NOT NULL,
	capex_pct           DOUBLE PRECISION NOT NULL,
	depreciation_pct    DOUBLE PRECISION NOT NULL,
	working_capital_pct DOUBLE PRECISION NOT NULL,
	tax_rate            DOUBLE PRECISION NOT NULL,
	wacc                DOUBLE PRECISION NOT NULL,
	terminal_growth     DOUBLE PRECISION NOT NULL,
	resolved            BOOLEAN NOT NULL,
	enterprise_value    DOUBLE PRECISION,
	equity_value        DOUBLE PRECISION,
	per_share_value     DOUBLE PRECISION,
	error               TEXT,
	PRIMARY KEY (run_id, trial)
);
`

// Initialize creates a database connection pool and applies the schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the valuation schema
func Migrate(ctx context.Context, db *DB) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
