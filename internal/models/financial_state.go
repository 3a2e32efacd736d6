package models

// FinancialState is the last known actual snapshot of a company, as delivered
// by the market data collaborator. Percentages are fractions (0.25 == 25%).
type FinancialState struct {
	Ticker            string    `json:"ticker" yaml:"ticker"`
	Currency          string    `json:"currency" yaml:"currency"`
	FiscalYear        int       `json:"fiscal_year" yaml:"fiscal_year"`
	Revenue           float64   `json:"revenue" yaml:"revenue"`
	EBITDAMargin      float64   `json:"ebitda_margin" yaml:"ebitda_margin"`
	CapexPct          float64   `json:"capex_pct" yaml:"capex_pct"`
	DepreciationPct   float64   `json:"depreciation_pct" yaml:"depreciation_pct"`
	WorkingCapitalPct float64   `json:"working_capital_pct" yaml:"working_capital_pct"`
	TaxRate           float64   `json:"tax_rate" yaml:"tax_rate"`
	SharesOutstanding float64   `json:"shares_outstanding" yaml:"shares_outstanding"`
	NetDebt           float64   `json:"net_debt" yaml:"net_debt"`
	Cash              float64   `json:"cash" yaml:"cash"`
	RevenueHistory    []float64 `json:"revenue_history,omitempty" yaml:"revenue_history,omitempty"`
}

// AssumptionSet holds one trial's scalar assumptions.
type AssumptionSet struct {
	RevenueGrowth     float64 `json:"revenue_growth" csv:"revenue_growth"`
	EBITDAMargin      float64 `json:"ebitda_margin" csv:"ebitda_margin"`
	CapexPct          float64 `json:"capex_pct" csv:"capex_pct"`
	DepreciationPct   float64 `json:"depreciation_pct" csv:"depreciation_pct"`
	WorkingCapitalPct float64 `json:"working_capital_pct" csv:"working_capital_pct"`
	TaxRate           float64 `json:"tax_rate" csv:"tax_rate"`
	WACC              float64 `json:"wacc" csv:"wacc"`
	TerminalGrowth    float64 `json:"terminal_growth" csv:"terminal_growth"`
}

// ProjectionYear is one forecasted year.
type ProjectionYear struct {
	Year                 int     `json:"year" csv:"year"`
	Revenue              float64 `json:"revenue" csv:"revenue"`
	EBITDA               float64 `json:"ebitda" csv:"ebitda"`
	Depreciation         float64 `json:"depreciation" csv:"depreciation"`
	EBIT                 float64 `json:"ebit" csv:"ebit"`
	NOPAT                float64 `json:"nopat" csv:"nopat"`
	Capex                float64 `json:"capex" csv:"capex"`
	WorkingCapitalChange float64 `json:"working_capital_change" csv:"working_capital_change"`
	FreeCashFlow         float64 `json:"free_cash_flow" csv:"fcff"`
}

// ValuationResult is the output of one DCF valuation.
type ValuationResult struct {
	PresentValueFCF           float64 `json:"pv_fcf"`
	TerminalValue             float64 `json:"terminal_value"`
	PresentValueTerminalValue float64 `json:"pv_terminal_value"`
	EnterpriseValue           float64 `json:"enterprise_value"`
	EquityValue               float64 `json:"equity_value"`
	PerShareValue             float64 `json:"per_share_value"`
}
