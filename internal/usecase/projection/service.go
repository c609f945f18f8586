package projection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/simaogato/wealthflow-projection/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/simaogato/wealthflow-projection/internal/usecase/projection"

// ProjectionService handles projection runs
type ProjectionService struct {
	Resolver        domain.InstrumentResolver
	Engine          *Engine
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
	Tracer          trace.Tracer
	MaxHorizonYears int
}

// NewProjectionService creates a new ProjectionService instance
func NewProjectionService(resolver domain.InstrumentResolver, m *metrics.Metrics, logger zerolog.Logger) *ProjectionService {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	return &ProjectionService{
		Resolver:        resolver,
		Engine:          NewEngine(),
		Metrics:         m,
		Logger:          logger.With().Str("component", "projection").Logger(),
		Tracer:          otel.Tracer(tracerName),
		MaxHorizonYears: domain.DefaultMaxHorizonYears,
	}
}

// RunProjection validates the request, resolves every instrument and runs the engine
// Logic:
//  1. Validate the request (ValidationError, nothing is resolved)
//  2. Resolve every position up front; the first unknown identifier aborts the run (NotFoundError),
//     then check that every starting position value is within MaxAmount
//  3. Run the month loop and tag the result with a fresh run ID; a series that leaves
//     float64 range is rejected as a ValidationError
//  4. Report guard skips to the log and the metrics
func (s *ProjectionService) RunProjection(ctx context.Context, req *domain.ProjectionRequest) (result *domain.ProjectionResult, err error) {
	start := time.Now()

	ctx, span := s.Tracer.Start(ctx, "projection.Run")
	defer func() {
		s.Metrics.RunDuration.Observe(time.Since(start).Seconds())
		s.Metrics.RunsTotal.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		span.End()
	}()

	if req == nil {
		return nil, domain.NewValidationError("", "request cannot be empty")
	}

	// Step 1: Validate
	if err := req.Validate(s.MaxHorizonYears); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("projection.positions", len(req.Positions)),
		attribute.Int("projection.horizon_years", req.HorizonYears),
		attribute.Bool("projection.real_terms", req.RealTerms),
	)

	// Step 2: Resolve
	instruments, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := req.ValidatePositionValues(instruments); err != nil {
		return nil, err
	}

	// Step 3: Run
	result, err = s.Engine.Run(req, instruments)
	if err != nil {
		return nil, err
	}
	if !finiteSeries(result) {
		return nil, domain.NewValidationError("horizon_years", "projected values exceed the representable range")
	}
	result.RunID = uuid.New()

	span.SetAttributes(attribute.String("projection.run_id", result.RunID.String()))
	s.Metrics.MonthsSimulated.Add(float64(req.Months()))

	// Step 4: Guards
	s.reportGuards(result)

	final := result.Final()
	s.Logger.Debug().
		Str("run_id", result.RunID.String()).
		Int("positions", len(req.Positions)).
		Int("horizon_years", req.HorizonYears).
		Float64("final_value", final.TotalValue).
		Float64("contributed", final.CumulativeContributed).
		Dur("elapsed", time.Since(start)).
		Msg("projection completed")

	return result, nil
}

// finiteSeries reports whether every aggregate point holds finite numbers.
// Instrument values are non-negative parts of the total, so the total covers them.
func finiteSeries(result *domain.ProjectionResult) bool {
	for _, p := range result.Portfolio {
		for _, v := range []float64{p.TotalValue, p.CumulativeContributed, p.CumulativeDividendsPaid, p.DividendsGenerated} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// resolve looks up every position's instrument in request order
func (s *ProjectionService) resolve(ctx context.Context, req *domain.ProjectionRequest) ([]*domain.Instrument, error) {
	instruments := make([]*domain.Instrument, len(req.Positions))

	for i, p := range req.Positions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		inst, err := s.Resolver.Resolve(ctx, p.InstrumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to resolve instrument %q: %w", p.InstrumentID, err)
		}
		if inst == nil {
			return nil, domain.NewNotFoundError("instrument", p.InstrumentID)
		}

		instruments[i] = inst
	}

	return instruments, nil
}

// reportGuards logs one warning per skipped instrument and reason, and counts every skip
func (s *ProjectionService) reportGuards(result *domain.ProjectionResult) {
	if len(result.Guards) == 0 {
		return
	}

	type key struct {
		id     string
		reason domain.GuardReason
	}
	counts := make(map[key]int)
	order := make([]key, 0)

	for _, g := range result.Guards {
		s.Metrics.GuardSkips.WithLabelValues(string(g.Reason)).Inc()

		k := key{id: g.InstrumentID, reason: g.Reason}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	for _, k := range order {
		s.Logger.Warn().
			Str("run_id", result.RunID.String()).
			Str("instrument_id", k.id).
			Str("reason", string(k.reason)).
			Int("skips", counts[k]).
			Msg("contribution skipped")
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, domain.ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
