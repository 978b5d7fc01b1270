package marketdata

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TruWeaveTrader/statarb/internal/cache"
	"github.com/TruWeaveTrader/statarb/internal/models"
)

// BarFetcher is the part of the Alpaca client the provider needs
type BarFetcher interface {
	GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]*models.Bar, error)
}

// AlpacaProvider loads daily closes from the Alpaca bars API through a cache
type AlpacaProvider struct {
	client BarFetcher
	cache  *cache.Cache
	logger *zap.Logger
}

// NewAlpacaProvider creates a provider. c may be nil to disable caching.
func NewAlpacaProvider(client BarFetcher, c *cache.Cache, logger *zap.Logger) *AlpacaProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlpacaProvider{
		client: client,
		cache:  c,
		logger: logger.With(zap.String("component", "alpaca_provider")),
	}
}

// Prices fetches each symbol in turn, serving repeats from the cache. Any
// fetch error aborts the load. New fetches are persisted when the cache has a
// backing file.
func (p *AlpacaProvider) Prices(ctx context.Context, symbols []string, start, end time.Time) (*models.PriceTable, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols requested: %w", models.ErrInsufficientData)
	}

	data := make(map[string][]models.Observation, len(symbols))
	fetched := 0
	for _, sym := range symbols {
		bars, cached, err := p.bars(ctx, sym, start, end)
		if err != nil {
			return nil, err
		}
		if !cached {
			fetched++
		}
		data[sym] = models.ObservationsFromBars(bars)
		p.logger.Debug("loaded bars",
			zap.String("symbol", sym),
			zap.Int("bars", len(bars)),
			zap.Bool("cached", cached))
	}
	if fetched > 0 && p.cache != nil {
		if err := p.cache.Save(); err != nil {
			p.logger.Warn("failed to persist bar cache",
				zap.String("path", p.cache.Path()),
				zap.Error(err))
		}
	}

	table := models.NewPriceTable(symbols, data)
	if err := checkUsable(table, p.logger); err != nil {
		return nil, err
	}
	return table, nil
}

func (p *AlpacaProvider) bars(ctx context.Context, symbol string, start, end time.Time) ([]*models.Bar, bool, error) {
	key := cache.BarsKey(symbol, start, end)
	if p.cache != nil {
		if bars, ok := p.cache.GetBars(key); ok {
			return bars, true, nil
		}
	}
	bars, err := p.client.GetDailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if p.cache != nil {
		p.cache.SetBars(key, bars)
	}
	return bars, false, nil
}
