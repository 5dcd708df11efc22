package service_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/cart-sync/internal/adapter/storage"
	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/internal/core/service"
)

type testEnv struct {
	redis     *redis.Client
	mysql     *sql.DB
	cache     *storage.RedisAdapter
	db        *storage.MySQLAdapter
	mirrorKey string
	cleanup   func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/cartsync?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		rdb.Close()
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		rdb.Close()
		db.Close()
		t.Skipf("MySQL not available: %v", err)
	}

	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mirrorKey := "it:cart:" + uuid.NewString()
	return &testEnv{
		redis:     rdb,
		mysql:     db,
		cache:     storage.NewRedisAdapter(rdb),
		db:        mysqlAdapter,
		mirrorKey: mirrorKey,
		cleanup: func() {
			rdb.Del(context.Background(), mirrorKey)
			rdb.Close()
			db.Close()
		},
	}
}

func (e *testEnv) seed(t *testing.T, p domain.Product, stock int) {
	t.Helper()
	ctx := context.Background()
	if err := e.db.UpsertProduct(ctx, p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := e.db.SetStock(ctx, p.ID, stock); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	t.Cleanup(func() {
		e.mysql.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, p.ID)
		e.mysql.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = ?`, p.ID)
		e.redis.Del(ctx, "stock:"+itoa(p.ID))
	})
}

func (e *testEnv) newService() *service.CartService {
	return service.NewCartService(
		storage.NewCartMirror(e.cache, e.mirrorKey),
		e.db,
		e.db,
		service.WithLogger(slog.New(slog.DiscardHandler)),
	)
}

func TestIntegration_FullCartFlow(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	product := domain.Product{ID: 910001, Title: "Tênis de Caminhada", Price: 179.9, Image: "1.jpg"}
	env.seed(t, product, 3)

	svc := env.newService()
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	// Add until the stock gate closes
	var outcomes []domain.Outcome
	for i := 0; i < 4; i++ {
		outcome, _ := svc.AddItem(ctx, product.ID)
		outcomes = append(outcomes, outcome)
	}
	want := []domain.Outcome{domain.OutcomeUpdated, domain.OutcomeUpdated, domain.OutcomeUpdated, domain.OutcomeStockExceeded}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Fatalf("outcomes: expected %v, got %v", want, outcomes)
		}
	}

	line, ok := svc.Cart().Line(product.ID)
	if !ok || line.Amount != 3 || line.Product != product {
		t.Fatalf("unexpected line: %+v", line)
	}

	// A fresh process sees the same cart
	restarted := env.newService()
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := restarted.Cart(); len(got) != 1 || got[0] != line {
		t.Errorf("expected restored cart %+v, got %+v", line, got)
	}

	if outcome, err := restarted.RemoveItem(ctx, product.ID); err != nil || outcome != domain.OutcomeUpdated {
		t.Fatalf("remove: %v %v", outcome, err)
	}
	stored, _ := env.redis.Get(ctx, env.mirrorKey).Result()
	if stored != "[]" {
		t.Errorf("expected empty stored cart, got %s", stored)
	}
}

func TestIntegration_StockCache(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	product := domain.Product{ID: 910002, Title: "Tênis VR", Price: 139.9, Image: "2.jpg"}
	env.seed(t, product, 2)

	svc := service.NewCartService(
		storage.NewCartMirror(env.cache, env.mirrorKey),
		env.db,
		storage.NewStockCache(env.cache, env.db, time.Minute, slog.New(slog.DiscardHandler)),
		service.WithLogger(slog.New(slog.DiscardHandler)),
	)

	svc.AddItem(ctx, product.ID)
	if outcome, _ := svc.AddItem(ctx, product.ID); outcome != domain.OutcomeUpdated {
		t.Fatalf("expected updated, got %s", outcome)
	}

	// The cached counter answers until it expires
	if err := env.db.SetStock(ctx, product.ID, 10); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	if outcome, _ := svc.AddItem(ctx, product.ID); outcome != domain.OutcomeStockExceeded {
		t.Errorf("expected stock_exceeded from cached stock, got %s", outcome)
	}
}

func TestIntegration_ConcurrentAddsNeverCorruptMirror(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	product := domain.Product{ID: 910003, Title: "Tênis Nike", Price: 199.9, Image: "3.jpg"}
	env.seed(t, product, 100)

	svc := env.newService()
	svc.AddItem(ctx, product.ID)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.AddItem(ctx, product.ID)
		}()
	}
	wg.Wait()

	// Last write wins: the amount may lag the number of calls but the
	// stored value always decodes to a single valid line.
	cart, ok, err := storage.NewCartMirror(env.cache, env.mirrorKey).LoadCart(ctx)
	if err != nil || !ok {
		t.Fatalf("load mirror: ok=%v err=%v", ok, err)
	}
	if len(cart) != 1 || cart[0].Amount < 2 || cart[0].Amount > 21 {
		t.Errorf("unexpected stored cart: %+v", cart)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
