package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/valuation-engine/internal/models"
)

// ValuationRunRepository defines the interface for valuation run storage
type ValuationRunRepository interface {
	Save(ctx context.Context, run *models.ValuationRun) error
	SaveWithTrials(ctx context.Context, run *models.ValuationRun, trials []models.TrialRow) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ValuationRun, error)
	GetLatestByTicker(ctx context.Context, ticker string) (*models.ValuationRun, error)
	ListLatest(ctx context.Context, limit int) ([]*models.ValuationRun, error)
	GetTrials(ctx context.Context, runID uuid.UUID) ([]models.TrialRow, error)
}
