package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

const (
	stockKeyPrefix       = "stock:"
	idempotencyKeyPrefix = "idempotency:"
	idempotencyKeyTTL    = 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return value, true, nil
}

func (r *RedisAdapter) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

// GetStock reads the cached stock counter for a product.
func (r *RedisAdapter) GetStock(ctx context.Context, productID int64) (domain.StockLevel, error) {
	key := stockKeyPrefix + strconv.FormatInt(productID, 10)

	amount, err := r.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return domain.StockLevel{}, fmt.Errorf("stock %d: %w", productID, ErrNotFound)
	}
	if err != nil {
		return domain.StockLevel{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	return domain.StockLevel{ProductID: productID, Amount: amount}, nil
}

// SetStock writes the stock counter for a product. A zero ttl keeps it
// until overwritten.
func (r *RedisAdapter) SetStock(ctx context.Context, productID int64, quantity int, ttl time.Duration) error {
	key := stockKeyPrefix + strconv.FormatInt(productID, 10)
	return r.client.Set(ctx, key, quantity, ttl).Err()
}
