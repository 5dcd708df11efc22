package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cart-sync/internal/adapter/storage"
	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/core/service"
)

const productID = 1

// staticCatalog serves a single product.
type staticCatalog struct{}

func (staticCatalog) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	return domain.Product{ID: id, Title: "stress-test-product", Price: 10}, nil
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "redis address")
	initialStock := flag.Int("stock", 20, "stock of the product")
	totalRequests := flag.Int("requests", 50, "concurrent addItem calls")
	flag.Parse()

	ctx := context.Background()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	mirrorKey := fmt.Sprintf("stress:cart:%d", time.Now().UnixNano())
	defer rdb.Del(ctx, mirrorKey)

	// Redis doubles as the stock oracle
	redisAdapter := storage.NewRedisAdapter(rdb)
	if err := redisAdapter.SetStock(ctx, productID, *initialStock, time.Minute); err != nil {
		log.Fatalf("failed to set stock: %v", err)
	}

	svc := service.NewCartService(
		storage.NewCartMirror(redisAdapter, mirrorKey),
		staticCatalog{},
		redisAdapter,
		service.WithLogger(slog.New(slog.DiscardHandler)),
	)

	// Seed the line so every call goes through the stock gate
	if _, err := svc.AddItem(ctx, productID); err != nil {
		log.Fatalf("failed to seed cart: %v", err)
	}

	var counts [4]atomic.Int32
	outcomes := []domain.Outcome{domain.OutcomeUpdated, domain.OutcomeUnchanged, domain.OutcomeStockExceeded, domain.OutcomeFailed}

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			outcome, _ := svc.AddItem(ctx, productID)
			for j, o := range outcomes {
				if o == outcome {
					counts[j].Add(1)
				}
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	mirror, _, err := storage.NewCartMirror(redisAdapter, mirrorKey).LoadCart(ctx)
	if err != nil {
		log.Fatalf("failed to read mirror: %v", err)
	}
	stored := 0
	if line, ok := mirror.Line(productID); ok {
		stored = line.Amount
	}
	updated := int(counts[0].Load())

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Stock:            %d\n", *initialStock)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	for j, o := range outcomes {
		fmt.Printf("%-17s %d\n", o+":", counts[j].Load())
	}
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("Stored Amount:    %d\n", stored)
	fmt.Printf("Memory Amount:    %d\n", svc.Cart().TotalAmount())
	fmt.Println("==========================================")

	// Concurrent operations are last-write-wins, so some increments can be lost
	if lost := 1 + updated - stored; lost > 0 {
		fmt.Printf("LOST UPDATES: %d increments overwritten\n", lost)
	} else {
		fmt.Println("no lost updates")
	}
	if stored > *initialStock {
		fmt.Printf("OVERSHOOT: stored amount %d exceeds stock %d\n", stored, *initialStock)
	}
}
