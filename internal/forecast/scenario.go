package forecast

import (
	"fmt"
	"sort"

	"github.com/yourusername/valuation-engine/internal/models"
)

// Scenario names
const (
	ScenarioBase = "base"
	ScenarioBull = "bull"
	ScenarioBear = "bear"
)

// ScenarioAdjustment derives a scenario from the base assumptions
type ScenarioAdjustment struct {
	GrowthMultiplier float64 `mapstructure:"growth_multiplier" json:"growth_multiplier"`
	MarginDelta      float64 `mapstructure:"margin_delta" json:"margin_delta"`
	CapexMultiplier  float64 `mapstructure:"capex_multiplier" json:"capex_multiplier"`
}

// Apply returns base adjusted by the scenario. Zero multipliers mean "unchanged".
func (s ScenarioAdjustment) Apply(base models.AssumptionSet) models.AssumptionSet {
	adjusted := base
	if s.GrowthMultiplier != 0 {
		adjusted.RevenueGrowth = base.RevenueGrowth * s.GrowthMultiplier
	}
	adjusted.EBITDAMargin = base.EBITDAMargin + s.MarginDelta
	if s.CapexMultiplier != 0 {
		adjusted.CapexPct = base.CapexPct * s.CapexMultiplier
	}
	return adjusted
}

// DefaultScenarios returns the stock base/bull/bear adjustments
func DefaultScenarios() map[string]ScenarioAdjustment {
	return map[string]ScenarioAdjustment{
		ScenarioBase: {GrowthMultiplier: 1, CapexMultiplier: 1},
		ScenarioBull: {GrowthMultiplier: 1.3, MarginDelta: 0.03, CapexMultiplier: 1.1},
		ScenarioBear: {GrowthMultiplier: 0.6, MarginDelta: -0.04, CapexMultiplier: 0.9},
	}
}

// Scenario is one named deterministic projection
type Scenario struct {
	Name        string                  `json:"name"`
	Assumptions models.AssumptionSet    `json:"assumptions"`
	Projection  []models.ProjectionYear `json:"projection"`
}

// BuildScenarios projects every scenario, ordered by name
func (f *Forecaster) BuildScenarios(state models.FinancialState, base models.AssumptionSet, adjustments map[string]ScenarioAdjustment, horizon int) ([]Scenario, error) {
	if len(adjustments) == 0 {
		adjustments = DefaultScenarios()
	}
	names := make([]string, 0, len(adjustments))
	for name := range adjustments {
		names = append(names, name)
	}
	sort.Strings(names)

	scenarios := make([]Scenario, 0, len(names))
	for _, name := range names {
		assumptions := adjustments[name].Apply(base)
		projection, err := f.Project(state, assumptions, horizon)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		scenarios = append(scenarios, Scenario{Name: name, Assumptions: assumptions, Projection: projection})
	}
	return scenarios, nil
}
