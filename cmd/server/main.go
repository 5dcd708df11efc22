package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/cart-sync/internal/adapter/catalog"
	"github.com/rl1809/cart-sync/internal/adapter/handler"
	"github.com/rl1809/cart-sync/internal/adapter/handler/pb"
	"github.com/rl1809/cart-sync/internal/adapter/notify"
	"github.com/rl1809/cart-sync/internal/adapter/storage"
	"github.com/rl1809/cart-sync/internal/core/service"
	"github.com/rl1809/cart-sync/internal/port"
	"github.com/rl1809/cart-sync/pkg/config"
	"github.com/rl1809/cart-sync/pkg/logger"
	"github.com/rl1809/cart-sync/pkg/metrics"
	"github.com/rl1809/cart-sync/pkg/shutdown"
)

type mirrorStore interface {
	port.KeyValueStore
	port.IdempotencyRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", slog.Any("err", err))
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: "cart-sync", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	// Redis is needed for the mirror or for the stock cache
	var rdb *redis.Client
	if cfg.MirrorBackend == config.BackendRedis || cfg.StockCacheTTL > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 20})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis connect failed", slog.Any("err", err), slog.String("addr", cfg.RedisAddr))
			os.Exit(1)
		}
		closers = append(closers, rdb)
		log.Info("connected to redis", slog.String("addr", cfg.RedisAddr))
	}

	var store mirrorStore
	switch cfg.MirrorBackend {
	case config.BackendSQLite:
		s, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Error("sqlite open failed", slog.Any("err", err), slog.String("path", cfg.SQLitePath))
			os.Exit(1)
		}
		closers = append(closers, s)
		store = s
	default:
		store = storage.NewRedisAdapter(rdb)
	}

	products, stock, err := openCatalog(ctx, cfg, log, &closers)
	if err != nil {
		log.Error("catalog setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	if cfg.StockCacheTTL > 0 {
		stock = storage.NewStockCache(storage.NewRedisAdapter(rdb), stock, cfg.StockCacheTTL, log)
	}

	m := metrics.New(nil)

	notifiers := notify.Fanout{notify.NewLogNotifier(log)}
	if cfg.KafkaBrokers != "" {
		kn := notify.NewKafkaNotifier(notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic, log), log)
		closers = append(closers, kn)
		notifiers = append(notifiers, kn)
		log.Info("publishing notifications to kafka", slog.String("topic", cfg.KafkaTopic))
	}

	cartService := service.NewCartService(
		storage.NewCartMirror(store, cfg.MirrorKey),
		products,
		stock,
		service.WithNotifier(notifiers),
		service.WithRecorder(m),
		service.WithLogger(log),
	)
	if err := cartService.Load(ctx); err != nil {
		log.Error("cart load failed", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("cart loaded", slog.Int("lines", len(cartService.Cart())))

	// gRPC server
	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("listen failed", slog.Any("err", err), slog.String("addr", grpcAddr))
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	pb.RegisterCartServiceServer(grpcServer, handler.NewGRPCHandler(cartService, store))

	// HTTP server
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewHTTPHandler(cartService, store, m).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		log.Info("grpc starting", slog.String("addr", grpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc serve error", slog.Any("err", err))
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		log.Info("http starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := httpServer.Shutdown(stopCtx); err != nil {
		log.Warn("http shutdown", slog.Any("err", err))
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopCtx.Done():
		log.Warn("graceful stop timeout, forcing stop")
		grpcServer.Stop()
	case <-stopped:
	}

	wg.Wait()
	log.Info("bye")
}

func openCatalog(ctx context.Context, cfg config.Config, log *slog.Logger, closers *[]io.Closer) (port.ProductCatalog, port.StockOracle, error) {
	if cfg.CatalogBackend == config.BackendHTTP {
		c := catalog.NewHTTPClient(cfg.CatalogURL, cfg.CatalogTimeout)
		log.Info("using http catalog", slog.String("url", cfg.CatalogURL))
		return c, c, nil
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	*closers = append(*closers, db)

	if err := db.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("ping mysql: %w", err)
	}

	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	log.Info("connected to mysql")
	return adapter, adapter, nil
}
