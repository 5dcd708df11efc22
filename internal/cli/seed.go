package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/cart-sync/internal/adapter/storage"
	"github.com/rl1809/cart-sync/internal/core/domain"
	"github.com/rl1809/cart-sync/pkg/config"
)

// SeedItem is one product entry of a seed file.
type SeedItem struct {
	ID    int64   `yaml:"id"`
	Title string  `yaml:"title"`
	Price float64 `yaml:"price"`
	Image string  `yaml:"image"`
	Stock int     `yaml:"stock"`
}

func (s SeedItem) Product() domain.Product {
	return domain.Product{ID: s.ID, Title: s.Title, Price: s.Price, Image: s.Image}
}

type seedFile struct {
	Products []SeedItem `yaml:"products"`
}

// SeedTarget receives every seeded product.
type SeedTarget interface {
	Seed(ctx context.Context, item SeedItem) error
}

type SeedOptions struct {
	*RootOptions
	File       string
	MySQL      bool
	RedisStock bool
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed --file <products.yaml>",
		Short: "Load products and stock into the catalog stores",
		Long: `Load products and stock into the catalog stores.

The file lists products with their stock:

  products:
    - id: 1
      title: Tênis de Caminhada Leve Confortável
      price: 179.9
      image: https://example.com/1.jpg
      stock: 3

Connection settings come from --config and the environment (MYSQL_DSN, REDIS_ADDR).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "seed file (required)")
	cmd.Flags().BoolVar(&opts.MySQL, "mysql", true, "write products and stock to MySQL")
	cmd.Flags().BoolVar(&opts.RedisStock, "redis-stock", false, "also write stock counters to Redis")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	items, err := LoadSeedFile(opts.File)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(opts.ConfigFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	var targets []SeedTarget
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	if opts.MySQL {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return fmt.Errorf("open mysql: %w", err)
		}
		closers = append(closers, db)
		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			return err
		}
		targets = append(targets, MySQLTarget{adapter})
	}
	if opts.RedisStock {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		closers = append(closers, rdb)
		targets = append(targets, RedisStockTarget{storage.NewRedisAdapter(rdb)})
	}
	if len(targets) == 0 {
		return errors.New("nothing to seed: enable --mysql or --redis-stock")
	}

	if err := Seed(ctx, items, targets...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", len(items))
	return nil
}

// LoadSeedFile reads and validates a seed file.
func LoadSeedFile(path string) ([]SeedItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f seedFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[int64]bool, len(f.Products))
	for i, p := range f.Products {
		switch {
		case p.ID <= 0:
			return nil, fmt.Errorf("products[%d]: id must be positive", i)
		case seen[p.ID]:
			return nil, fmt.Errorf("products[%d]: duplicate id %d", i, p.ID)
		case p.Stock < 0:
			return nil, fmt.Errorf("products[%d]: stock must not be negative", i)
		}
		seen[p.ID] = true
	}
	return f.Products, nil
}

// Seed writes every item to every target, stopping at the first error.
func Seed(ctx context.Context, items []SeedItem, targets ...SeedTarget) error {
	for _, item := range items {
		for _, t := range targets {
			if err := t.Seed(ctx, item); err != nil {
				return fmt.Errorf("seed product %d: %w", item.ID, err)
			}
		}
	}
	return nil
}

type MySQLTarget struct {
	DB *storage.MySQLAdapter
}

func (t MySQLTarget) Seed(ctx context.Context, item SeedItem) error {
	if err := t.DB.UpsertProduct(ctx, item.Product()); err != nil {
		return err
	}
	return t.DB.SetStock(ctx, item.ID, item.Stock)
}

type RedisStockTarget struct {
	Cache *storage.RedisAdapter
}

func (t RedisStockTarget) Seed(ctx context.Context, item SeedItem) error {
	return t.Cache.SetStock(ctx, item.ID, item.Stock, 0)
}
