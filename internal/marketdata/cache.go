package marketdata

import (
	"context"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/valuation-engine/internal/logger"
	"github.com/yourusername/valuation-engine/internal/metrics"
	"github.com/yourusername/valuation-engine/internal/models"
)

// DefaultPriceTTL is how long a fetched market price is reused
const DefaultPriceTTL = 5 * time.Minute

// PriceCache provides in-memory caching for market prices
type PriceCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewPriceCache creates a new price cache
func NewPriceCache(ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = DefaultPriceTTL
	}
	return &PriceCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get retrieves a cached price
func (pc *PriceCache) Get(ticker string) (float64, bool) {
	if value, found := pc.cache.Get(normalizeTicker(ticker)); found {
		if price, ok := value.(float64); ok {
			pc.hitCount.Add(1)
			return price, true
		}
	}
	pc.missCount.Add(1)
	return 0, false
}

// Set stores a price in cache
func (pc *PriceCache) Set(ticker string, price float64) {
	pc.cache.Set(normalizeTicker(ticker), price, pc.ttl)
}

// Invalidate removes the cached price of ticker
func (pc *PriceCache) Invalidate(ticker string) {
	pc.cache.Delete(normalizeTicker(ticker))
}

// Clear removes all entries from cache
func (pc *PriceCache) Clear() {
	pc.cache.Flush()
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	ItemCount int     `json:"item_count"`
}

// GetStats returns cache statistics
func (pc *PriceCache) GetStats() CacheStats {
	hits := pc.hitCount.Load()
	misses := pc.missCount.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate,
		ItemCount: pc.cache.ItemCount(),
	}
}

// CachedProvider wraps a Provider with a market price TTL cache
type CachedProvider struct {
	provider Provider
	prices   *PriceCache
	logger   *logger.MarketDataLogger
}

// NewCachedProvider creates a provider whose prices are cached for ttl
func NewCachedProvider(provider Provider, ttl time.Duration, log *logrus.Logger) *CachedProvider {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return &CachedProvider{
		provider: provider,
		prices:   NewPriceCache(ttl),
		logger:   logger.NewMarketDataLogger(log),
	}
}

// FetchFinancialState delegates to the wrapped provider
func (c *CachedProvider) FetchFinancialState(ctx context.Context, ticker string) (models.FinancialState, error) {
	return c.provider.FetchFinancialState(ctx, ticker)
}

// FetchMarketPrice returns a cached price or fetches and caches a fresh one
func (c *CachedProvider) FetchMarketPrice(ctx context.Context, ticker string) (float64, error) {
	if price, ok := c.prices.Get(ticker); ok {
		metrics.RecordPriceCacheHit()
		c.logger.LogCacheHit(ticker, price)
		return price, nil
	}

	price, err := c.provider.FetchMarketPrice(ctx, ticker)
	if err != nil {
		return 0, err
	}
	c.prices.Set(ticker, price)
	return price, nil
}

// Name returns the wrapped provider name
func (c *CachedProvider) Name() string {
	return c.provider.Name()
}

// Stats returns price cache statistics
func (c *CachedProvider) Stats() CacheStats {
	return c.prices.GetStats()
}

// Invalidate drops the cached price of ticker
func (c *CachedProvider) Invalidate(ticker string) {
	c.prices.Invalidate(ticker)
}
