// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds application configuration
type Config struct {
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":8080"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8081"`
	APIToken string `env:"API_TOKEN" envDefault:"dev-token"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/catalog.db"`
	DBConnStr   string `env:"DB_CONN_STR"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"postgres"`
	DBPassword  string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName      string `env:"DB_NAME" envDefault:"wealthflow"`

	UniverseFiles     []string      `env:"UNIVERSE_FILES" envSeparator:"," envDefault:"data/universe/core.csv"`
	MarketDataEnabled bool          `env:"MARKET_DATA_ENABLED" envDefault:"false"`
	MarketDataBaseURL string        `env:"MARKET_DATA_BASE_URL" envDefault:"https://query1.finance.yahoo.com"`
	MarketDataTimeout time.Duration `env:"MARKET_DATA_TIMEOUT" envDefault:"10s"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	QuoteCacheTTL time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"6h"`

	RefreshSchedule string `env:"REFRESH_SCHEDULE" envDefault:"@every 6h"`
	MaxHorizonYears int    `env:"MAX_HORIZON_YEARS" envDefault:"100"`
}

// Load reads an optional .env file, then the environment
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StorePostgres:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, postgres, sqlite; got %q", c.StoreDriver)
	}

	if strings.TrimSpace(c.GRPCAddr) == "" && strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("at least one of GRPC_ADDR and HTTP_ADDR is required")
	}

	if c.MaxHorizonYears < 1 {
		return fmt.Errorf("MAX_HORIZON_YEARS must be positive")
	}

	return nil
}

// PostgresDSN returns DB_CONN_STR, or builds one from the individual DB_* variables
func (c *Config) PostgresDSN() string {
	if c.DBConnStr != "" {
		return c.DBConnStr
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// UniversePaths returns the configured universe files without blanks
func (c *Config) UniversePaths() []string {
	paths := make([]string, 0, len(c.UniverseFiles))
	for _, p := range c.UniverseFiles {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
