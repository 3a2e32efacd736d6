package valuation

import (
	"fmt"

	"github.com/yourusername/valuation-engine/internal/dcf"
	"github.com/yourusername/valuation-engine/internal/forecast"
	"github.com/yourusername/valuation-engine/internal/models"
)

// ScenarioValuation is one deterministic scenario valued at the base discount rates
type ScenarioValuation struct {
	forecast.Scenario
	Valuation models.ValuationResult `json:"valuation"`
}

// ValueScenarios projects every scenario derived from base and values it with
// the base WACC and terminal growth.
func ValueScenarios(forecaster *forecast.Forecaster, state models.FinancialState, base models.AssumptionSet, adjustments map[string]forecast.ScenarioAdjustment, horizon int) ([]ScenarioValuation, error) {
	scenarios, err := forecaster.BuildScenarios(state, base, adjustments, horizon)
	if err != nil {
		return nil, err
	}

	valued := make([]ScenarioValuation, 0, len(scenarios))
	for _, scenario := range scenarios {
		result, err := dcf.Value(scenario.Projection, scenario.Assumptions.WACC, scenario.Assumptions.TerminalGrowth, state)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		valued = append(valued, ScenarioValuation{Scenario: scenario, Valuation: result})
	}
	return valued, nil
}
