package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`

	GRPCPort int `yaml:"grpc_port"`
	HTTPPort int `yaml:"http_port"`

	MirrorBackend string `yaml:"mirror_backend"`
	MirrorKey     string `yaml:"mirror_key"`
	RedisAddr     string `yaml:"redis_addr"`
	SQLitePath    string `yaml:"sqlite_path"`

	CatalogBackend string        `yaml:"catalog_backend"`
	MySQLDSN       string        `yaml:"mysql_dsn"`
	CatalogURL     string        `yaml:"catalog_url"`
	CatalogTimeout time.Duration `yaml:"catalog_timeout"`

	// StockCacheTTL enables the Redis stock cache when positive.
	StockCacheTTL time.Duration `yaml:"stock_cache_ttl"`

	KafkaBrokers string `yaml:"kafka_brokers"`
	KafkaTopic   string `yaml:"kafka_topic"`
}

const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendHTTP   = "http"
)

func Defaults() Config {
	return Config{
		AppEnv:         "dev",
		LogLevel:       "info",
		HTTPPort:       8080,
		GRPCPort:       8081,
		MirrorBackend:  BackendRedis,
		MirrorKey:      "@RocketShoes:cart",
		RedisAddr:      "localhost:6379",
		SQLitePath:     "cart.db",
		CatalogBackend: BackendMySQL,
		MySQLDSN:       "root:root@tcp(localhost:3306)/cartsync?parseTime=true",
		CatalogURL:     "http://localhost:3333",
		CatalogTimeout: 5 * time.Second,
		KafkaTopic:     "cartsync.notifications",
	}
}

// Load reads the file named by CONFIG_FILE, if any, then applies the
// environment on top.
func Load() (Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile layers defaults, the YAML file at path (skipped when path is
// empty) and environment variables, in that order.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = getEnvInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MirrorBackend = getEnv("MIRROR_BACKEND", cfg.MirrorBackend)
	cfg.MirrorKey = getEnv("MIRROR_KEY", cfg.MirrorKey)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.CatalogBackend = getEnv("CATALOG_BACKEND", cfg.CatalogBackend)
	cfg.MySQLDSN = getEnv("MYSQL_DSN", cfg.MySQLDSN)
	cfg.CatalogURL = getEnv("CATALOG_URL", cfg.CatalogURL)
	cfg.CatalogTimeout = getEnvDuration("CATALOG_TIMEOUT", cfg.CatalogTimeout)
	cfg.StockCacheTTL = getEnvDuration("STOCK_CACHE_TTL", cfg.StockCacheTTL)
	cfg.KafkaBrokers = getEnv("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.MirrorBackend {
	case BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown mirror backend %q", c.MirrorBackend)
	}
	switch c.CatalogBackend {
	case BackendMySQL, BackendHTTP:
	default:
		return fmt.Errorf("unknown catalog backend %q", c.CatalogBackend)
	}
	if c.MirrorKey == "" {
		return errors.New("mirror key is required")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}

	return d
}
