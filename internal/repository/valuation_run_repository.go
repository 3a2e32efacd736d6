package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/valuation-engine/internal/database"
	"github.com/yourusername/valuation-engine/internal/models"
)

const (
	errScanValuationRun = "failed to scan valuation run: %w"
	uniqueViolation     = "23505"

	valuationRunColumns = `id, ticker, run_date, seed, horizon, trials,
		succeeded_trials, failed_trials, resolved_trials, complete,
		market_price, mean_per_share, median_per_share, cvar_per_share, median_ev,
		upside_probability, assumptions, summary, created_at`

	insertValuationRun = `
		INSERT INTO valuation_runs (` + valuationRunColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`
)

var trialColumns = []string{
	"run_id", "trial", "seed", "status",
	"revenue_growth", "ebitda_margin", "capex_pct", "depreciation_pct",
	"working_capital_pct", "tax_rate", "wacc", "terminal_growth",
	"resolved", "enterprise_value", "equity_value", "per_share_value", "error",
}

// PostgresValuationRunRepository implements ValuationRunRepository for PostgreSQL
type PostgresValuationRunRepository struct {
	db *database.DB
}

// NewPostgresValuationRunRepository creates a new valuation run repository
func NewPostgresValuationRunRepository(db *database.DB) ValuationRunRepository {
	return &PostgresValuationRunRepository{db: db}
}

// Save inserts a valuation run without its trials
func (r *PostgresValuationRunRepository) Save(ctx context.Context, run *models.ValuationRun) error {
	if _, err := r.db.Exec(ctx, insertValuationRun, runArgs(run)...); err != nil {
		return wrapWriteError("failed to save valuation run", err)
	}
	return nil
}

// SaveWithTrials inserts a run and bulk-copies its trial rows in one transaction
func (r *PostgresValuationRunRepository) SaveWithTrials(ctx context.Context, run *models.ValuationRun, trials []models.TrialRow) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertValuationRun, runArgs(run)...); err != nil {
			return wrapWriteError("failed to save valuation run", err)
		}
		if len(trials) == 0 {
			return nil
		}

		count, err := tx.CopyFrom(ctx, pgx.Identifier{"valuation_trials"}, trialColumns, pgx.CopyFromRows(trialCopyRows(run.ID, trials)))
		if err != nil {
			return fmt.Errorf("failed to copy valuation trials: %w", err)
		}
		if count != int64(len(trials)) {
			return fmt.Errorf("inserted %d trial rows, expected %d", count, len(trials))
		}
		return nil
	})
}

// GetByID retrieves a run by ID
func (r *PostgresValuationRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ValuationRun, error) {
	query := `SELECT ` + valuationRunColumns + ` FROM valuation_runs WHERE id = $1`
	return scanRun(r.db.QueryRow(ctx, query, id))
}

// GetLatestByTicker retrieves the most recent run of ticker
func (r *PostgresValuationRunRepository) GetLatestByTicker(ctx context.Context, ticker string) (*models.ValuationRun, error) {
	query := `SELECT ` + valuationRunColumns + `
		FROM valuation_runs WHERE ticker = $1 ORDER BY run_date DESC LIMIT 1`
	return scanRun(r.db.QueryRow(ctx, query, ticker))
}

// ListLatest retrieves the most recent run of each ticker
func (r *PostgresValuationRunRepository) ListLatest(ctx context.Context, limit int) ([]*models.ValuationRun, error) {
	query := `SELECT * FROM (
			SELECT DISTINCT ON (ticker) ` + valuationRunColumns + `
			FROM valuation_runs ORDER BY ticker, run_date DESC
		) latest ORDER BY run_date DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest valuation runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ValuationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetTrials retrieves the trial rows of a run in trial order
func (r *PostgresValuationRunRepository) GetTrials(ctx context.Context, runID uuid.UUID) ([]models.TrialRow, error) {
	query := `
		SELECT trial, seed, status, revenue_growth, ebitda_margin, capex_pct, depreciation_pct,
			working_capital_pct, tax_rate, wacc, terminal_growth, resolved,
			enterprise_value, equity_value, per_share_value, error
		FROM valuation_trials WHERE run_id = $1 ORDER BY trial ASC
	`
	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query valuation trials: %w", err)
	}
	defer rows.Close()

	var trials []models.TrialRow
	for rows.Next() {
		var (
			row                  models.TrialRow
			ev, equity, perShare *float64
			errText              *string
		)
		if err := rows.Scan(
			&row.Index, &row.Seed, &row.Status, &row.RevenueGrowth, &row.EBITDAMargin, &row.CapexPct, &row.DepreciationPct,
			&row.WorkingCapitalPct, &row.TaxRate, &row.WACC, &row.TerminalGrowth, &row.Resolved,
			&ev, &equity, &perShare, &errText,
		); err != nil {
			return nil, fmt.Errorf("failed to scan valuation trial: %w", err)
		}
		row.EnterpriseValue = deref(ev)
		row.EquityValue = deref(equity)
		row.PerShareValue = deref(perShare)
		if errText != nil {
			row.Error = *errText
		}
		trials = append(trials, row)
	}
	return trials, rows.Err()
}

func runArgs(run *models.ValuationRun) []any {
	return []any{
		run.ID, run.Ticker, run.RunDate, run.Seed, run.Horizon, run.Trials,
		run.SucceededTrials, run.FailedTrials, run.ResolvedTrials, run.Complete,
		run.MarketPrice, run.MeanPerShare, run.MedianPerShare, run.CVaRPerShare, run.MedianEV,
		run.UpsideProbability, run.Assumptions, run.Summary, run.CreatedAt,
	}
}

// trialCopyRows converts trial rows into COPY input. Value columns of
// unsuccessful trials are NULL.
func trialCopyRows(runID uuid.UUID, trials []models.TrialRow) [][]any {
	rows := make([][]any, len(trials))
	for i, t := range trials {
		var ev, equity, perShare, errText any
		if t.Status == string(models.TrialSucceeded) {
			ev, equity, perShare = t.EnterpriseValue, t.EquityValue, t.PerShareValue
		}
		if t.Error != "" {
			errText = t.Error
		}
		rows[i] = []any{
			runID, t.Index, t.Seed, t.Status,
			t.RevenueGrowth, t.EBITDAMargin, t.CapexPct, t.DepreciationPct,
			t.WorkingCapitalPct, t.TaxRate, t.WACC, t.TerminalGrowth,
			t.Resolved, ev, equity, perShare, errText,
		}
	}
	return rows
}

func scanRun(row pgx.Row) (*models.ValuationRun, error) {
	run := &models.ValuationRun{}
	err := row.Scan(
		&run.ID, &run.Ticker, &run.RunDate, &run.Seed, &run.Horizon, &run.Trials,
		&run.SucceededTrials, &run.FailedTrials, &run.ResolvedTrials, &run.Complete,
		&run.MarketPrice, &run.MeanPerShare, &run.MedianPerShare, &run.CVaRPerShare, &run.MedianEV,
		&run.UpsideProbability, &run.Assumptions, &run.Summary, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf(errScanValuationRun, err)
	}
	return run, nil
}

func wrapWriteError(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", msg, models.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
