// Package forecast builds deterministic multi-year financial projections.
package forecast

import (
	"fmt"
	"math"

	"github.com/yourusername/valuation-engine/internal/models"
)

// Range is a closed interval a percentage-typed assumption must fall in
type Range struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

// Contains reports whether v lies in [Min, Max]
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Domain bounds the operating assumptions accepted by the forecaster
type Domain struct {
	RevenueGrowth     Range `mapstructure:"revenue_growth" json:"revenue_growth"`
	EBITDAMargin      Range `mapstructure:"ebitda_margin" json:"ebitda_margin"`
	CapexPct          Range `mapstructure:"capex_pct" json:"capex_pct"`
	DepreciationPct   Range `mapstructure:"depreciation_pct" json:"depreciation_pct"`
	WorkingCapitalPct Range `mapstructure:"working_capital_pct" json:"working_capital_pct"`
	TaxRate           Range `mapstructure:"tax_rate" json:"tax_rate"`
}

// DefaultDomain keeps every percentage in [0, 1]. Growth may be negative but
// must stay above -100%.
func DefaultDomain() Domain {
	unit := Range{Min: 0, Max: 1}
	return Domain{
		RevenueGrowth:     Range{Min: -0.99, Max: 5},
		EBITDAMargin:      unit,
		CapexPct:          unit,
		DepreciationPct:   unit,
		WorkingCapitalPct: unit,
		TaxRate:           unit,
	}
}

// Validate checks the operating fields of an assumption set against the domain
func (d Domain) Validate(a models.AssumptionSet) error {
	checks := []struct {
		name  string
		value float64
		rng   Range
	}{
		{"revenue_growth", a.RevenueGrowth, d.RevenueGrowth},
		{"ebitda_margin", a.EBITDAMargin, d.EBITDAMargin},
		{"capex_pct", a.CapexPct, d.CapexPct},
		{"depreciation_pct", a.DepreciationPct, d.DepreciationPct},
		{"working_capital_pct", a.WorkingCapitalPct, d.WorkingCapitalPct},
		{"tax_rate", a.TaxRate, d.TaxRate},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%w: %s is not finite", models.ErrInvalidAssumption, c.name)
		}
		if !c.rng.Contains(c.value) {
			return fmt.Errorf("%w: %s=%.6f outside [%.4f, %.4f]", models.ErrInvalidAssumption, c.name, c.value, c.rng.Min, c.rng.Max)
		}
	}
	if a.RevenueGrowth <= -1 {
		return fmt.Errorf("%w: revenue_growth must be greater than -1", models.ErrInvalidAssumption)
	}
	return nil
}

// Forecaster projects financial statements within a configured domain
type Forecaster struct {
	domain Domain
}

// NewForecaster creates a forecaster bounded by domain
func NewForecaster(domain Domain) *Forecaster {
	return &Forecaster{domain: domain}
}

// Project builds horizon years of projections using the default domain
func Project(state models.FinancialState, assumptions models.AssumptionSet, horizon int) ([]models.ProjectionYear, error) {
	return NewForecaster(DefaultDomain()).Project(state, assumptions, horizon)
}

// Project builds horizon years of projections. Each year depends only on the
// prior year's revenue and the fixed assumption set.
func (f *Forecaster) Project(state models.FinancialState, assumptions models.AssumptionSet, horizon int) ([]models.ProjectionYear, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", models.ErrInvalidAssumption, horizon)
	}
	if err := f.domain.Validate(assumptions); err != nil {
		return nil, err
	}

	years := make([]models.ProjectionYear, horizon)
	prevRevenue := state.Revenue
	for t := 0; t < horizon; t++ {
		revenue := prevRevenue * (1 + assumptions.RevenueGrowth)
		ebitda := revenue * assumptions.EBITDAMargin
		depreciation := revenue * assumptions.DepreciationPct
		ebit := ebitda - depreciation
		nopat := ebit * (1 - assumptions.TaxRate)
		capex := revenue * assumptions.CapexPct
		wcChange := assumptions.WorkingCapitalPct * (revenue - prevRevenue)

		years[t] = models.ProjectionYear{
			Year:                 t + 1,
			Revenue:              revenue,
			EBITDA:               ebitda,
			Depreciation:         depreciation,
			EBIT:                 ebit,
			NOPAT:                nopat,
			Capex:                capex,
			WorkingCapitalChange: wcChange,
			FreeCashFlow:         nopat + depreciation - capex - wcChange,
		}
		prevRevenue = revenue
	}
	return years, nil
}
