// Package dcf values projected free cash flows with a Gordon growth terminal value.
package dcf

import (
	"fmt"
	"math"

	"github.com/yourusername/valuation-engine/internal/models"
)

// DiscountCashFlows returns the summed present value of cash flows for years
// 1..n at a constant rate, along with the per-year discount factors.
func DiscountCashFlows(cashFlows []float64, wacc float64) (float64, []float64) {
	factors := make([]float64, len(cashFlows))
	pv := 0.0
	for i, cf := range cashFlows {
		factors[i] = math.Pow(1+wacc, -float64(i+1))
		pv += cf * factors[i]
	}
	return pv, factors
}

// TerminalValueGordon returns FCF_N * (1+g) / (wacc - g)
func TerminalValueGordon(lastFCF, wacc, terminalGrowth float64) (float64, error) {
	if wacc <= terminalGrowth {
		return 0, fmt.Errorf("%w: wacc=%.6f terminal_growth=%.6f", models.ErrDegenerateDiscountRate, wacc, terminalGrowth)
	}
	return lastFCF * (1 + terminalGrowth) / (wacc - terminalGrowth), nil
}

// Value computes enterprise, equity and per-share value for one projection
func Value(projection []models.ProjectionYear, wacc, terminalGrowth float64, state models.FinancialState) (models.ValuationResult, error) {
	if len(projection) == 0 {
		return models.ValuationResult{}, fmt.Errorf("%w: projection is empty", models.ErrInvalidAssumption)
	}
	if wacc <= -1 || math.IsNaN(wacc) || math.IsNaN(terminalGrowth) {
		return models.ValuationResult{}, fmt.Errorf("%w: wacc=%.6f terminal_growth=%.6f", models.ErrInvalidAssumption, wacc, terminalGrowth)
	}
	if state.SharesOutstanding <= 0 {
		return models.ValuationResult{}, fmt.Errorf("%w: share count must be positive", models.ErrInvalidAssumption)
	}

	cashFlows := make([]float64, len(projection))
	for i, year := range projection {
		cashFlows[i] = year.FreeCashFlow
	}

	pvFCF, factors := DiscountCashFlows(cashFlows, wacc)
	tv, err := TerminalValueGordon(cashFlows[len(cashFlows)-1], wacc, terminalGrowth)
	if err != nil {
		return models.ValuationResult{}, err
	}
	pvTV := tv * factors[len(factors)-1]

	ev := pvFCF + pvTV
	equity := ev - state.NetDebt + state.Cash
	perShare := equity / state.SharesOutstanding
	if math.IsNaN(perShare) || math.IsInf(perShare, 0) || math.IsInf(ev, 0) {
		return models.ValuationResult{}, fmt.Errorf("%w: valuation is not finite", models.ErrInvalidAssumption)
	}
	return models.ValuationResult{
		PresentValueFCF:           pvFCF,
		TerminalValue:             tv,
		PresentValueTerminalValue: pvTV,
		EnterpriseValue:           ev,
		EquityValue:               equity,
		PerShareValue:             perShare,
	}, nil
}
