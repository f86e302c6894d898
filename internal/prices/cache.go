package prices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"paper-trading-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sentinel errors for price resolution.
var (
	// ErrUpstreamUnavailable means the upstream fetch failed and no cached
	// snapshot exists to fall back to.
	ErrUpstreamUnavailable = errors.New("price feed unavailable")
	// ErrPriceUnavailable means the coin has no usable price in the current
	// snapshot.
	ErrPriceUnavailable = errors.New("price unavailable")
)

// Fetcher abstracts the upstream price API for the cache.
type Fetcher interface {
	FetchPrices(ctx context.Context, ids []string) (map[string]UpstreamQuote, error)
}

// Cache holds the single process-wide price snapshot for the supported coin
// set. A snapshot younger than the freshness window is served without an
// upstream call; refreshes are serialized under the mutex, so readers never
// observe a torn snapshot and concurrent callers within one window trigger at
// most one upstream request. On refresh failure the read path serves the last
// good snapshot; the trade path (Quote) does not.
type Cache struct {
	coins   []models.Coin
	fetcher Fetcher
	ttl     time.Duration

	mu       sync.Mutex
	snapshot *models.PriceSnapshot
}

func NewCache(coins []models.Coin, fetcher Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		coins:   coins,
		fetcher: fetcher,
		ttl:     ttl,
	}
}

// Snapshot returns the current price snapshot, refreshing it from upstream
// when the freshness window has elapsed. On refresh failure the last good
// snapshot is served instead; only an empty cache surfaces the failure. The
// returned snapshot is shared and must be treated as read-only; it is
// replaced wholesale, never mutated.
func (c *Cache) Snapshot(ctx context.Context) (*models.PriceSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot, err := c.freshSnapshot(ctx)
	if err != nil {
		if c.snapshot != nil {
			zap.L().Warn("Price refresh failed, serving last good snapshot",
				zap.Error(err),
				zap.Time("fetched_at", c.snapshot.FetchedAt))
			return c.snapshot, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return snapshot, nil
}

// freshSnapshot returns a snapshot younger than the freshness window,
// refreshing from upstream when needed. Callers must hold mu.
func (c *Cache) freshSnapshot(ctx context.Context) (*models.PriceSnapshot, error) {
	if c.snapshot != nil && time.Since(c.snapshot.FetchedAt) < c.ttl {
		return c.snapshot, nil
	}

	ids := make([]string, len(c.coins))
	for i, coin := range c.coins {
		ids[i] = coin.Id
	}

	raw, err := c.fetcher.FetchPrices(ctx, ids)
	if err != nil {
		return nil, err
	}

	quotes := make([]models.PriceQuote, len(c.coins))
	for i, coin := range c.coins {
		quote := models.PriceQuote{Id: coin.Id, Symbol: coin.Symbol}
		// A coin absent from the upstream body keeps nil price and change.
		if upstream, ok := raw[coin.Id]; ok {
			quote.Price = upstream.USD
			quote.Change24h = upstream.Change24h
		}
		quotes[i] = quote
	}

	c.snapshot = &models.PriceSnapshot{
		Quotes:    quotes,
		FetchedAt: time.Now(),
	}

	zap.L().Debug("Price snapshot refreshed", zap.Int("coins", len(quotes)))
	return c.snapshot, nil
}

// Quote resolves the current unit price for one symbol. Unlike Snapshot it
// never falls back to a stale snapshot: trade execution fails the request
// rather than executing at a price older than the freshness window.
func (c *Cache) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	c.mu.Lock()
	snapshot, err := c.freshSnapshot(ctx)
	c.mu.Unlock()
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	quote := snapshot.Quote(symbol)
	if quote == nil || quote.Price == nil || quote.Price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}

	return *quote.Price, nil
}

// Coins returns the fixed supported coin set in display order.
func (c *Cache) Coins() []models.Coin {
	return c.coins
}
