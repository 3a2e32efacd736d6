package marketdata

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/valuation-engine/internal/config"
)

// ProviderType represents the type of market data provider
type ProviderType string

const (
	// HTTPProviderType fetches fundamentals and quotes from a JSON API
	HTTPProviderType ProviderType = "http"
	// FileProviderType reads fundamentals from local YAML and CSV files
	FileProviderType ProviderType = "file"
)

// NewProvider creates the configured provider wrapped in a price cache
func NewProvider(appCfg *config.Config, logger *logrus.Logger) (*CachedProvider, error) {
	if appCfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := appCfg.MarketData
	var provider Provider

	switch ProviderType(cfg.Provider) {
	case HTTPProviderType:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("market data base URL is required for the http provider")
		}
		httpCfg := DefaultHTTPClientConfig()
		httpCfg.Timeout = appCfg.MarketDataTimeout()
		httpCfg.MaxRetries = cfg.RetryAttempts
		if cfg.RateLimitPerSecond > 0 {
			httpCfg.RateLimit = cfg.RateLimitPerSecond
		}
		provider = NewHTTPProvider(NewRateLimitedHTTPClient(httpCfg, logger), cfg.BaseURL, cfg.APIKey, logger)

	case FileProviderType:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("market data file path is required for the file provider")
		}
		fileProvider, err := NewFileProvider(cfg.FilePath, cfg.HistoryPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create file provider: %w", err)
		}
		provider = fileProvider

	default:
		return nil, fmt.Errorf("unknown market data provider: %s", cfg.Provider)
	}

	return NewCachedProvider(provider, appCfg.PriceCacheTTL(), logger), nil
}
