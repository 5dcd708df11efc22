package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/port"
)

// StockCache answers stock lookups from the Redis stock counters and falls
// back to source on a miss, keeping the answer for ttl.
type StockCache struct {
	cache  *RedisAdapter
	source port.StockOracle
	ttl    time.Duration
	logger *slog.Logger
}

func NewStockCache(cache *RedisAdapter, source port.StockOracle, ttl time.Duration, logger *slog.Logger) *StockCache {
	return &StockCache{cache: cache, source: source, ttl: ttl, logger: logger}
}

func (c *StockCache) GetStock(ctx context.Context, productID int64) (domain.StockLevel, error) {
	level, err := c.cache.GetStock(ctx, productID)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, ErrNotFound) {
		c.logger.Warn("stock cache read failed", slog.Int64("product_id", productID), slog.Any("err", err))
	}

	level, err = c.source.GetStock(ctx, productID)
	if err != nil {
		return domain.StockLevel{}, err
	}

	if err := c.cache.SetStock(ctx, productID, level.Amount, c.ttl); err != nil {
		c.logger.Warn("stock cache write failed", slog.Int64("product_id", productID), slog.Any("err", err))
	}
	return level, nil
}
