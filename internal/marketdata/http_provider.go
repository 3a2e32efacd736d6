package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/valuation-engine/internal/models"
)

const httpProviderName = "http"

// HTTPProvider implements Provider against a JSON fundamentals API
type HTTPProvider struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	observer   observer
}

// fundamentalsPayload is the fundamentals document returned by the API.
// Amounts are decimals so that string and numeric encodings both parse.
type fundamentalsPayload struct {
	Ticker            string            `json:"ticker"`
	Currency          string            `json:"currency"`
	FiscalYear        int               `json:"fiscal_year"`
	Revenue           decimal.Decimal   `json:"revenue"`
	EBITDAMargin      decimal.Decimal   `json:"ebitda_margin"`
	CapexPct          decimal.Decimal   `json:"capex_pct"`
	DepreciationPct   decimal.Decimal   `json:"depreciation_pct"`
	WorkingCapitalPct decimal.Decimal   `json:"working_capital_pct"`
	TaxRate           decimal.Decimal   `json:"tax_rate"`
	SharesOutstanding decimal.Decimal   `json:"shares_outstanding"`
	NetDebt           decimal.Decimal   `json:"net_debt"`
	Cash              decimal.Decimal   `json:"cash"`
	RevenueHistory    []decimal.Decimal `json:"revenue_history"`
}

// quotePayload is the quote document returned by the API
type quotePayload struct {
	Ticker string          `json:"ticker"`
	Price  decimal.Decimal `json:"price"`
	AsOf   string          `json:"as_of"`
}

// NewHTTPProvider creates a new HTTP market data provider
func NewHTTPProvider(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *HTTPProvider {
	return &HTTPProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		observer:   newObserver(httpProviderName, logger),
	}
}

// FetchFinancialState retrieves the latest fundamentals of ticker
func (p *HTTPProvider) FetchFinancialState(ctx context.Context, ticker string) (state models.FinancialState, err error) {
	start := time.Now()
	defer func() { p.observer.observe(ticker, "fundamentals", start, err) }()

	var payload fundamentalsPayload
	if err = p.getJSON(ctx, "/fundamentals/"+url.PathEscape(ticker), &payload); err != nil {
		return models.FinancialState{}, err
	}

	state = payload.toFinancialState(ticker)
	if err = ValidateFinancialState(state); err != nil {
		return models.FinancialState{}, NewProviderError(httpProviderName, ErrCodeInvalidData, "invalid fundamentals for "+ticker, err)
	}
	return state, nil
}

// FetchMarketPrice retrieves the latest share price of ticker
func (p *HTTPProvider) FetchMarketPrice(ctx context.Context, ticker string) (price float64, err error) {
	start := time.Now()
	defer func() { p.observer.observe(ticker, "quote", start, err) }()

	var payload quotePayload
	if err = p.getJSON(ctx, "/quote/"+url.PathEscape(ticker), &payload); err != nil {
		return 0, err
	}
	if !payload.Price.IsPositive() {
		err = NewProviderError(httpProviderName, ErrCodeInvalidData, fmt.Sprintf("non-positive price %s for %s", payload.Price, ticker), ErrInvalidData)
		return 0, err
	}
	return payload.Price.InexactFloat64(), nil
}

// Name returns the provider name
func (p *HTTPProvider) Name() string {
	return httpProviderName
}

// getJSON issues an authenticated GET and decodes the JSON body into out
func (p *HTTPProvider) getJSON(ctx context.Context, path string, out any) error {
	headers := map[string]string{"Accept": "application/json"}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	resp, err := p.httpClient.Get(ctx, p.baseURL+path, headers)
	if err != nil {
		return NewProviderError(httpProviderName, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return NewProviderError(httpProviderName, ErrCodeNotFound, path, ErrTickerNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return NewProviderError(httpProviderName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewProviderError(httpProviderName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewProviderError(httpProviderName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewProviderError(httpProviderName, ErrCodeInvalidData, "failed to parse response", fmt.Errorf("%w: %v", ErrInvalidData, err))
	}
	return nil
}

func (f fundamentalsPayload) toFinancialState(ticker string) models.FinancialState {
	if f.Ticker != "" {
		ticker = f.Ticker
	}
	state := models.FinancialState{
		Ticker:            ticker,
		Currency:          f.Currency,
		FiscalYear:        f.FiscalYear,
		Revenue:           f.Revenue.InexactFloat64(),
		EBITDAMargin:      f.EBITDAMargin.InexactFloat64(),
		CapexPct:          f.CapexPct.InexactFloat64(),
		DepreciationPct:   f.DepreciationPct.InexactFloat64(),
		WorkingCapitalPct: f.WorkingCapitalPct.InexactFloat64(),
		TaxRate:           f.TaxRate.InexactFloat64(),
		SharesOutstanding: f.SharesOutstanding.InexactFloat64(),
		NetDebt:           f.NetDebt.InexactFloat64(),
		Cash:              f.Cash.InexactFloat64(),
	}
	if len(f.RevenueHistory) > 0 {
		state.RevenueHistory = make([]float64, len(f.RevenueHistory))
		for i, v := range f.RevenueHistory {
			state.RevenueHistory[i] = v.InexactFloat64()
		}
	}
	return state
}
