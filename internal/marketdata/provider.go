// Package marketdata supplies the financial state and market price a valuation starts from.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/valuation-engine/internal/logger"
	"github.com/yourusername/valuation-engine/internal/metrics"
	"github.com/yourusername/valuation-engine/internal/models"
)

// Provider fetches the inputs of a valuation
type Provider interface {
	// FetchFinancialState returns the latest fundamentals of ticker
	FetchFinancialState(ctx context.Context, ticker string) (models.FinancialState, error)

	// FetchMarketPrice returns the current share price of ticker
	FetchMarketPrice(ctx context.Context, ticker string) (float64, error)

	// Name returns the name of the provider
	Name() string
}

// ProviderError represents errors from provider operations
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + ": " + e.Code + ": " + e.Message
}

func (e ProviderError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

var (
	ErrTickerNotFound = errors.New("ticker not found")
	ErrInvalidData    = errors.New("invalid data format")
)

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, err error) ProviderError {
	return ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}

// ValidateFinancialState rejects fundamentals no valuation can start from
func ValidateFinancialState(state models.FinancialState) error {
	switch {
	case state.Revenue < 0:
		return fmt.Errorf("%w: revenue must be non-negative, got %.2f", ErrInvalidData, state.Revenue)
	case state.SharesOutstanding <= 0:
		return fmt.Errorf("%w: shares outstanding must be positive, got %.2f", ErrInvalidData, state.SharesOutstanding)
	case state.TaxRate < 0 || state.TaxRate > 1:
		return fmt.Errorf("%w: tax rate must be within [0, 1], got %.4f", ErrInvalidData, state.TaxRate)
	}
	return nil
}

// observer records metrics and logs for provider calls
type observer struct {
	provider string
	log      *logger.MarketDataLogger
}

func newObserver(provider string, log *logrus.Logger) observer {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return observer{provider: provider, log: logger.NewMarketDataLogger(log)}
}

func (o observer) observe(ticker, resource string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.RecordMarketDataRequest(o.provider, resource, err, elapsed.Seconds())
	o.log.LogFetch(o.provider, ticker, resource, elapsed, err)
}
