package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the "outcome" label
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeNotFound   = "not_found"
	OutcomeError      = "error"
	OutcomeFallback   = "fallback"
	OutcomeSkipped    = "skipped"
	OutcomeRefreshed  = "refreshed"
	OutcomeCacheHit   = "hit"
	OutcomeCacheMiss  = "miss"
	OutcomeCacheError = "cache_error"
)

// Metrics holds all Prometheus metrics for the projection service.
type Metrics struct {
	// Projection runs
	RunsTotal       *prometheus.CounterVec // labels: outcome
	RunDuration     prometheus.Histogram
	MonthsSimulated prometheus.Counter
	GuardSkips      *prometheus.CounterVec // labels: reason

	// Catalog refresh
	RefreshTotal    *prometheus.CounterVec // labels: outcome
	RefreshDuration prometheus.Histogram
	InstrumentCount prometheus.Gauge

	// Market data quote cache
	QuoteCacheTotal *prometheus.CounterVec // labels: outcome

	registry *prometheus.Registry
}

// NewMetrics creates all metrics and registers them on reg.
// A nil reg gets a fresh private registry, which keeps tests independent.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projection_runs_total",
			Help: "Total projection runs by outcome",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "projection_run_duration_seconds",
			Help:    "Projection latency including instrument resolution",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		MonthsSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "projection_months_simulated_total",
			Help: "Total simulated months across all runs",
		}),
		GuardSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "projection_guard_skips_total",
			Help: "Contribution steps skipped by a computation guard",
		}, []string{"reason"}),

		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_refresh_instruments_total",
			Help: "Instruments processed by the catalog refresh, by outcome",
		}, []string{"outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_refresh_duration_seconds",
			Help:    "Duration of a full catalog refresh",
			Buckets: prometheus.DefBuckets,
		}),
		InstrumentCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_instruments",
			Help: "Number of instruments in the catalog after the last refresh",
		}),

		QuoteCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketdata_quote_cache_total",
			Help: "Quote cache lookups by outcome",
		}, []string{"outcome"}),

		registry: reg,
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.MonthsSimulated,
		m.GuardSkips,
		m.RefreshTotal,
		m.RefreshDuration,
		m.InstrumentCount,
		m.QuoteCacheTotal,
	)

	return m
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler exposing the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
