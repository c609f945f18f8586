package seeder

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/simaogato/wealthflow-projection/internal/marketdata"
	"github.com/simaogato/wealthflow-projection/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Price used for instruments that could not be quoted and carry no curated price
const fallbackPrice = 1.0

// Maximum monthly returns kept on an instrument for the historical growth model
const maxStoredMonths = 120

// Summary counts what one seeding pass did
type Summary struct {
	Refreshed int // quoted online
	Fallback  int // built offline from the universe file
	Skipped   int // quote failed, existing instrument kept
	Failed    int // rejected by validation or storage
}

// Catalog is the part of the catalog service the seeder writes through
type Catalog interface {
	GetInstrument(ctx context.Context, id string) (*domain.Instrument, error)
	ListInstruments(ctx context.Context, query string) ([]*domain.Instrument, error)
	SaveInstrument(ctx context.Context, inst *domain.Instrument) error
}

// UniverseSeeder fills the instrument catalog from the curated universe
type UniverseSeeder struct {
	catalog  Catalog
	provider marketdata.Provider // nil seeds offline only
	items    []marketdata.UniverseItem
	workers  int
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewUniverseSeeder creates a new UniverseSeeder instance
func NewUniverseSeeder(catalog Catalog, provider marketdata.Provider, items []marketdata.UniverseItem, m *metrics.Metrics, log zerolog.Logger) *UniverseSeeder {
	// Limit concurrency to stay under provider rate limits
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	if workers > 8 {
		workers = 8
	}

	return &UniverseSeeder{
		catalog:  catalog,
		provider: provider,
		items:    items,
		workers:  workers,
		metrics:  m,
		log:      log.With().Str("component", "seeder").Logger(),
		now:      time.Now,
	}
}

// outcome of building one item
type built struct {
	instrument *domain.Instrument
	online     bool
	err        error
}

// Seed ensures every universe item exists in the catalog with the freshest data available
// Logic:
//  1. Quote all items concurrently (bounded worker pool)
//  2. Items whose quote fails keep their stored instrument if there is one,
//     otherwise they are built offline from the universe file
//  3. Upsert in universe order so list order follows the curated files
func (s *UniverseSeeder) Seed(ctx context.Context) (Summary, error) {
	start := time.Now()
	var summary Summary

	// Step 1: Fetch
	results := make([]built, len(s.items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, item := range s.items {
		i, item := i, item
		g.Go(func() error {
			results[i] = s.build(gctx, item)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	// Step 2 and 3: Store
	for i, item := range s.items {
		res := results[i]
		inst := res.instrument

		if !res.online {
			existing, err := s.catalog.GetInstrument(ctx, item.ID)
			if err == nil && existing != nil {
				summary.Skipped++
				s.count(metrics.OutcomeSkipped)
				if res.err != nil {
					s.log.Warn().Err(res.err).Str("id", item.ID).Str("symbol", item.Symbol).Msg("Quote failed, keeping stored instrument")
				}
				continue
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				summary.Failed++
				s.count(metrics.OutcomeError)
				s.log.Error().Err(err).Str("id", item.ID).Msg("Failed to read stored instrument")
				continue
			}
		}

		// SaveInstrument validates before storing
		if err := s.catalog.SaveInstrument(ctx, inst); err != nil {
			summary.Failed++
			s.count(metrics.OutcomeError)
			s.log.Error().Err(err).Str("id", item.ID).Msg("Failed to store instrument")
			continue
		}

		if res.online {
			summary.Refreshed++
			s.count(metrics.OutcomeRefreshed)
		} else {
			summary.Fallback++
			s.count(metrics.OutcomeFallback)
			if res.err != nil {
				s.log.Debug().Err(res.err).Str("id", item.ID).Msg("Instrument built offline")
			}
		}
	}

	if s.metrics != nil {
		s.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
		if all, err := s.catalog.ListInstruments(ctx, ""); err == nil {
			s.metrics.InstrumentCount.Set(float64(len(all)))
		}
	}

	s.log.Info().
		Int("items", len(s.items)).
		Int("refreshed", summary.Refreshed).
		Int("fallback", summary.Fallback).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("Catalog seeded")

	if len(s.items) > 0 && summary.Failed == len(s.items) {
		return summary, fmt.Errorf("all %d universe items failed", len(s.items))
	}

	return summary, nil
}

// Name identifies the refresh job in scheduler logs
func (s *UniverseSeeder) Name() string {
	return "universe_refresh"
}

// Run seeds and only reports errors; it is the scheduled refresh job
func (s *UniverseSeeder) Run(ctx context.Context) error {
	_, err := s.Seed(ctx)
	return err
}

// build quotes one item, falling back to the offline estimate
func (s *UniverseSeeder) build(ctx context.Context, item marketdata.UniverseItem) built {
	if s.provider == nil {
		return built{instrument: s.offline(item)}
	}

	snap, err := s.provider.Snapshot(ctx, item.Symbol)
	if err != nil {
		return built{instrument: s.offline(item), err: err}
	}

	return built{instrument: s.fromSnapshot(item, snap), online: true}
}

// fromSnapshot builds an instrument from live market data
func (s *UniverseSeeder) fromSnapshot(item marketdata.UniverseItem, snap *marketdata.Snapshot) *domain.Instrument {
	estimate, ok := marketdata.EstimateACGR(snap.MonthlyReturns)

	yield := marketdata.DefaultYield(item.Symbol)
	if snap.DividendYield != nil {
		yield = *snap.DividendYield
	}

	expenseRatio := marketdata.DefaultExpenseRatio(item.Symbol, item.Name)
	switch {
	case snap.ExpenseRatio != nil:
		expenseRatio = *snap.ExpenseRatio
	case item.ExpenseRatio != nil:
		expenseRatio = *item.ExpenseRatio
	}

	returns := snap.MonthlyReturns
	if len(returns) > maxStoredMonths {
		returns = returns[len(returns)-maxStoredMonths:]
	}

	name := item.Name
	if name == "" || name == item.Symbol {
		name = snap.Name
	}

	return &domain.Instrument{
		ID:               item.ID,
		Name:             name,
		Symbol:           item.Symbol,
		Currency:         snap.Currency,
		CurrentPrice:     snap.Price,
		AnnualGrowthRate: marketdata.ResolveACGR(estimate, ok, item.ACGRHint),
		DividendYield:    yield,
		DividendPolicy:   marketdata.PolicyForYield(yield),
		ExpenseRatio:     &expenseRatio,
		MonthlyReturns:   append([]float64(nil), returns...),
		UpdatedAt:        s.now().UTC(),
	}
}

// offline builds an instrument from the universe file alone
func (s *UniverseSeeder) offline(item marketdata.UniverseItem) *domain.Instrument {
	price := fallbackPrice
	if item.Price != nil && *item.Price > 0 {
		price = *item.Price
	}

	yield := marketdata.DefaultYield(item.Symbol)
	if item.Yield != nil {
		yield = *item.Yield
	}

	expenseRatio := marketdata.DefaultExpenseRatio(item.Symbol, item.Name)
	if item.ExpenseRatio != nil {
		expenseRatio = *item.ExpenseRatio
	}

	return &domain.Instrument{
		ID:               item.ID,
		Name:             item.Name,
		Symbol:           item.Symbol,
		Currency:         "USD",
		CurrentPrice:     price,
		AnnualGrowthRate: marketdata.ResolveACGR(0, false, item.ACGRHint),
		DividendYield:    yield,
		DividendPolicy:   marketdata.PolicyForYield(yield),
		ExpenseRatio:     &expenseRatio,
		UpdatedAt:        s.now().UTC(),
	}
}

func (s *UniverseSeeder) count(outcome string) {
	if s.metrics != nil {
		s.metrics.RefreshTotal.WithLabelValues(outcome).Inc()
	}
}
