package handler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cart-sync/internal/adapter/storage"
	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/core/service"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	stock    map[int64]int
	err      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[int64]domain.Product{
			1: {ID: 1, Title: "Tênis de Caminhada", Price: 179.9, Image: "1.jpg"},
			2: {ID: 2, Title: "Tênis VR Caminhada", Price: 139.9, Image: "2.jpg"},
		},
		stock: map[int64]int{1: 1, 2: 5},
	}
}

func (c *fakeCatalog) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return domain.Product{}, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, errors.New("product not found")
	}
	return p, nil
}

func (c *fakeCatalog) GetStock(_ context.Context, id int64) (domain.StockLevel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return domain.StockLevel{}, c.err
	}
	return domain.StockLevel{ProductID: id, Amount: c.stock[id]}, nil
}

func (c *fakeCatalog) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

type testEnv struct {
	mr      *miniredis.Miniredis
	redis   *storage.RedisAdapter
	catalog *fakeCatalog
	svc     *service.CartService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	kv := storage.NewRedisAdapter(client)
	catalog := newFakeCatalog()
	svc := service.NewCartService(
		storage.NewCartMirror(kv, ""),
		catalog,
		catalog,
		service.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	return &testEnv{mr: mr, redis: kv, catalog: catalog, svc: svc}
}
