package dcf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuation-engine/internal/forecast"
	"github.com/yourusername/valuation-engine/internal/models"
)

func flatProjection(fcfs ...float64) []models.ProjectionYear {
	years := make([]models.ProjectionYear, len(fcfs))
	for i, fcf := range fcfs {
		years[i] = models.ProjectionYear{Year: i + 1, FreeCashFlow: fcf}
	}
	return years
}

func TestValueHandComputed(t *testing.T) {
	state := models.FinancialState{SharesOutstanding: 10, NetDebt: 50, Cash: 20}
	result, err := Value(flatProjection(100, 100), 0.10, 0.02, state)
	require.NoError(t, err)

	pv := 100/1.1 + 100/(1.1*1.1)
	tv := 100 * 1.02 / 0.08
	pvTV := tv / (1.1 * 1.1)

	assert.InDelta(t, pv, result.PresentValueFCF, 1e-9)
	assert.InDelta(t, tv, result.TerminalValue, 1e-9)
	assert.InDelta(t, pvTV, result.PresentValueTerminalValue, 1e-9)
	assert.InDelta(t, pv+pvTV, result.EnterpriseValue, 1e-9)
	assert.InDelta(t, pv+pvTV-50+20, result.EquityValue, 1e-9)
	assert.InDelta(t, (pv+pvTV-30)/10, result.PerShareValue, 1e-9)
}

func TestValueDegenerateDiscountRate(t *testing.T) {
	state := models.FinancialState{SharesOutstanding: 1}
	for _, g := range []float64{0.10, 0.12} {
		_, err := Value(flatProjection(100), 0.10, g, state)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrDegenerateDiscountRate)
	}
}

func TestValueRejectsInvalidInputs(t *testing.T) {
	_, err := Value(nil, 0.1, 0.02, models.FinancialState{SharesOutstanding: 1})
	assert.ErrorIs(t, err, models.ErrInvalidAssumption)

	_, err = Value(flatProjection(1), 0.1, 0.02, models.FinancialState{})
	assert.ErrorIs(t, err, models.ErrInvalidAssumption)

	_, err = Value(flatProjection(1), -1, -2, models.FinancialState{SharesOutstanding: 1})
	assert.ErrorIs(t, err, models.ErrInvalidAssumption)
}

func TestValueNonNegativeForNonNegativeCashFlows(t *testing.T) {
	state := models.FinancialState{SharesOutstanding: 1}
	for _, wacc := range []float64{0.03, 0.07, 0.12, 0.25} {
		for _, g := range []float64{-0.02, 0, 0.01, 0.025} {
			if g >= wacc {
				continue
			}
			result, err := Value(flatProjection(0, 5, 10, 50, 3), wacc, g, state)
			require.NoError(t, err)
			assert.False(t, math.IsInf(result.EnterpriseValue, 0) || math.IsNaN(result.EnterpriseValue))
			assert.GreaterOrEqual(t, result.EnterpriseValue, 0.0)
		}
	}
}

func TestValueWithForecast(t *testing.T) {
	state := models.FinancialState{Revenue: 1000, SharesOutstanding: 100, NetDebt: 100, Cash: 50}
	a := models.AssumptionSet{RevenueGrowth: 0.05, EBITDAMargin: 0.3, CapexPct: 0.05, DepreciationPct: 0.04, WorkingCapitalPct: 0.1, TaxRate: 0.25}
	projection, err := forecast.Project(state, a, 5)
	require.NoError(t, err)

	low, err := Value(projection, 0.12, 0.02, state)
	require.NoError(t, err)
	high, err := Value(projection, 0.08, 0.02, state)
	require.NoError(t, err)
	assert.Greater(t, high.PerShareValue, low.PerShareValue)
}

func TestDiscountCashFlows(t *testing.T) {
	pv, factors := DiscountCashFlows([]float64{110, 121}, 0.10)
	assert.InDelta(t, 200.0, pv, 1e-9)
	require.Len(t, factors, 2)
	assert.InDelta(t, 1/1.1, factors[0], 1e-12)
}

func TestCAPMWACC(t *testing.T) {
	wacc, err := CAPMWACC(CAPMInputs{
		Beta:         1.2,
		RiskFreeRate: 0.03,
		MarketReturn: 0.08,
		MarketDebt:   25,
		MarketEquity: 75,
		TaxRate:      0.2,
	})
	require.NoError(t, err)
	// 0.75 * (0.03 + 1.2*0.05) + 0.25 * 0.035 * 0.8
	assert.InDelta(t, 0.75*0.09+0.25*0.035*0.8, wacc, 1e-12)

	_, err = CAPMWACC(CAPMInputs{})
	assert.Error(t, err)
}
