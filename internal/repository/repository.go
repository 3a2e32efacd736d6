// Package repository persists valuation runs in PostgreSQL.
package repository

import (
	"fmt"

	"github.com/yourusername/valuation-engine/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	ValuationRun ValuationRunRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		ValuationRun: NewPostgresValuationRunRepository(db),
	}, nil
}
