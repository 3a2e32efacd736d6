package dcf

import "fmt"

// DefaultCostOfDebt is used when CAPMInputs.CostOfDebt is zero
const DefaultCostOfDebt = 0.035

// CAPMInputs are the market inputs of a CAPM-based WACC
type CAPMInputs struct {
	Beta         float64 `mapstructure:"beta" json:"beta"`
	RiskFreeRate float64 `mapstructure:"risk_free_rate" json:"risk_free_rate"`
	MarketReturn float64 `mapstructure:"market_return" json:"market_return"`
	MarketDebt   float64 `mapstructure:"market_debt" json:"market_debt"`
	MarketEquity float64 `mapstructure:"market_equity" json:"market_equity"`
	CostOfDebt   float64 `mapstructure:"cost_of_debt" json:"cost_of_debt"`
	TaxRate      float64 `mapstructure:"tax_rate" json:"tax_rate"`
}

// CostOfEquity returns rf + beta * (rm - rf)
func (in CAPMInputs) CostOfEquity() float64 {
	return in.RiskFreeRate + in.Beta*(in.MarketReturn-in.RiskFreeRate)
}

// CAPMWACC weights the CAPM cost of equity and the after-tax cost of debt by market values
func CAPMWACC(in CAPMInputs) (float64, error) {
	total := in.MarketDebt + in.MarketEquity
	if total <= 0 {
		return 0, fmt.Errorf("market debt + market equity must be positive, got %.2f", total)
	}
	costOfDebt := in.CostOfDebt
	if costOfDebt == 0 {
		costOfDebt = DefaultCostOfDebt
	}
	wd := in.MarketDebt / total
	we := in.MarketEquity / total
	return we*in.CostOfEquity() + wd*costOfDebt*(1-in.TaxRate), nil
}
