package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// MarketDataLogger provides dedicated logging for market data access.
type MarketDataLogger struct {
	*logrus.Entry
}

// NewMarketDataLogger creates a new market data logger.
func NewMarketDataLogger(baseLogger *logrus.Logger) *MarketDataLogger {
	return &MarketDataLogger{
		Entry: baseLogger.WithField("component", "market_data"),
	}
}

// LogFetch logs a provider call.
func (ml *MarketDataLogger) LogFetch(provider, ticker, resource string, duration time.Duration, err error) {
	entry := ml.WithFields(logrus.Fields{
		"provider":    provider,
		"ticker":      ticker,
		"resource":    resource,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("Market data fetch failed")
		return
	}
	entry.Debug("Market data fetched")
}

// LogCacheHit logs a market price served from cache.
func (ml *MarketDataLogger) LogCacheHit(ticker string, price float64) {
	ml.WithFields(logrus.Fields{
		"ticker": ticker,
		"price":  price,
	}).Debug("Market price cache hit")
}
