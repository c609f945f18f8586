// Package app wires configuration into repositories, caches and services.
// Both the server and the forecast CLI start from New.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	rediscache "github.com/simaogato/wealthflow-projection/internal/adapter/cache/redis"
	"github.com/simaogato/wealthflow-projection/internal/adapter/repository/memory"
	"github.com/simaogato/wealthflow-projection/internal/adapter/repository/postgres"
	"github.com/simaogato/wealthflow-projection/internal/adapter/repository/sqlite"
	"github.com/simaogato/wealthflow-projection/internal/config"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/simaogato/wealthflow-projection/internal/marketdata"
	"github.com/simaogato/wealthflow-projection/internal/metrics"
	"github.com/simaogato/wealthflow-projection/internal/usecase/catalog"
	"github.com/simaogato/wealthflow-projection/internal/usecase/projection"
	"github.com/simaogato/wealthflow-projection/internal/usecase/seeder"
)

// App holds the wired services of one process
type App struct {
	Config     *config.Config
	Log        zerolog.Logger
	Metrics    *metrics.Metrics
	Repo       domain.InstrumentRepository
	Catalog    *catalog.CatalogService
	Projection *projection.ProjectionService
	Seeder     *seeder.UniverseSeeder

	closers []func() error
}

// New opens storage, loads the universe and builds the services.
// Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.NewMetrics(nil),
	}

	repo, err := a.openRepository(ctx)
	if err != nil {
		return nil, err
	}
	a.Repo = repo

	a.Catalog = catalog.NewCatalogService(repo)
	a.Projection = projection.NewProjectionService(a.Catalog, a.Metrics, log)
	a.Projection.MaxHorizonYears = cfg.MaxHorizonYears

	items, err := marketdata.LoadUniverse(cfg.UniversePaths()...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var provider marketdata.Provider
	if cfg.MarketDataEnabled {
		cache, err := a.openQuoteCache()
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		provider = marketdata.NewYahooProvider(marketdata.YahooConfig{
			BaseURL:  cfg.MarketDataBaseURL,
			Timeout:  cfg.MarketDataTimeout,
			CacheTTL: cfg.QuoteCacheTTL,
		}, cache, a.Metrics, log)
	}
	a.Seeder = seeder.NewUniverseSeeder(a.Catalog, provider, items, a.Metrics, log)

	log.Info().
		Str("store", cfg.StoreDriver).
		Int("universe_items", len(items)).
		Bool("market_data", cfg.MarketDataEnabled).
		Msg("Application wired")

	return a, nil
}

// Close releases storage and cache connections in reverse order
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openRepository(ctx context.Context) (domain.InstrumentRepository, error) {
	switch a.Config.StoreDriver {
	case config.StorePostgres:
		db, err := postgres.NewDB(a.Config.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewInstrumentRepository(db), nil

	case config.StoreSQLite:
		store, err := sqlite.Open(a.Config.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil

	default:
		return memory.NewInstrumentRepository(), nil
	}
}

// openQuoteCache uses Redis when configured, otherwise an in-process cache
func (a *App) openQuoteCache() (domain.QuoteCache, error) {
	if a.Config.RedisAddr == "" {
		return marketdata.NewMemoryQuoteCache(), nil
	}

	cache, err := rediscache.New(rediscache.Config{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, cache.Close)
	return cache, nil
}
