package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/simaogato/wealthflow-projection/internal/usecase/allocator"
)

// Engine runs the month-by-month projection of a resolved basket.
// It performs no I/O and shares nothing between runs: every call to Run
// allocates its own state, so one Engine can serve concurrent callers.
type Engine struct{}

// NewEngine creates a new Engine instance
func NewEngine() *Engine {
	return &Engine{}
}

// positionState is the mutable state of one position during a run.
// States live in a slice and are referenced by the position index.
type positionState struct {
	instrument    *domain.Instrument
	startQuantity float64
	units         float64
	price         float64

	// monthly rates, fixed for the whole run
	effectiveReturn float64 // ACGR-derived, already converted to real terms when requested
	dividendYield   float64 // reporting yield / 12
	historical      []float64

	dividendsPaid float64
	yearDividends float64

	points          []domain.SeriesPoint
	yearlyDividends []float64
}

func (s *positionState) value() float64 {
	return s.units * s.price
}

// run holds the run-wide state of one projection
type run struct {
	req       *domain.ProjectionRequest
	positions []positionState

	feeFactor        float64
	monthlyInflation float64

	contributionInterval int
	contributionShares   []float64

	contributed   float64
	dividendsPaid float64

	portfolio []domain.PortfolioPoint
	guards    []domain.Guard
}

// Run projects the request over its horizon
// instruments must hold the resolved instrument of every position, in the same order
// Logic:
//  1. Build one state record per position (units = quantity, price = current price)
//  2. Record month 0 before any growth or contribution
//  3. For each month: grow prices and account dividends, inject contributions at checkpoints,
//     then record the aggregate point and one point per instrument
func (e *Engine) Run(req *domain.ProjectionRequest, instruments []*domain.Instrument) (*domain.ProjectionResult, error) {
	if req == nil {
		return nil, errors.New("projection request cannot be nil")
	}

	if len(instruments) != len(req.Positions) {
		return nil, fmt.Errorf("expected %d resolved instruments, got %d", len(req.Positions), len(instruments))
	}

	r, err := newRun(req, instruments)
	if err != nil {
		return nil, err
	}

	r.recordMonth(0, 0)
	for m := 1; m <= req.Months(); m++ {
		generated := r.stepPrices(m)
		r.closeYear(m)
		r.contribute(m)
		r.recordMonth(m, generated)
	}

	return r.result(), nil
}

// newRun initializes the per-run state
func newRun(req *domain.ProjectionRequest, instruments []*domain.Instrument) (*run, error) {
	months := req.Months()

	// Month 0 reports the declared capital, not the literal basket value
	r := &run{
		req:         req,
		positions:   make([]positionState, len(req.Positions)),
		feeFactor:   MonthlyFeeFactor(req.AnnualFeeBps),
		portfolio:   make([]domain.PortfolioPoint, 0, months+1),
		contributed: req.DeclaredStartingCapital,
	}

	if req.RealTerms {
		r.monthlyInflation = MonthlyRate(req.AnnualInflation)
	}

	for i, p := range req.Positions {
		inst := instruments[i]
		if inst == nil {
			return nil, domain.NewNotFoundError("instrument", p.InstrumentID)
		}

		s := positionState{
			instrument:    inst,
			startQuantity: p.Quantity,
			units:         p.Quantity,
			price:         inst.CurrentPrice,
			dividendYield: inst.ReportingYield() / 12.0,
			points:        make([]domain.SeriesPoint, 0, months+1),
		}

		s.effectiveReturn = r.toEffective(MonthlyRate(inst.AnnualGrowthRate))
		if req.GrowthModel == domain.GrowthModelHistorical && len(inst.MonthlyReturns) > 0 {
			s.historical = inst.MonthlyReturns
		}

		r.positions[i] = s
	}

	// The checkpoint amount and the starting quantities never change during a run,
	// so the per-position shares are computed once
	if req.Contribution.Enabled() {
		shares, err := splitShares(req)
		if err != nil {
			return nil, fmt.Errorf("failed to split contribution: %w", err)
		}

		r.contributionInterval = req.Contribution.Frequency.IntervalMonths()
		r.contributionShares = shares
	}

	return r, nil
}

// splitShares runs the decimal allocator on the checkpoint amount and converts
// the shares back to the engine's float64 arithmetic
func splitShares(req *domain.ProjectionRequest) ([]float64, error) {
	total, err := toDecimal(req.Contribution.CheckpointAmount())
	if err != nil {
		return nil, err
	}

	weights := make([]decimal.Decimal, len(req.Positions))
	for i, p := range req.Positions {
		if weights[i], err = toDecimal(p.Quantity); err != nil {
			return nil, err
		}
	}

	split, err := allocator.SplitContribution(total, weights)
	if err != nil {
		return nil, err
	}

	shares := make([]float64, len(split))
	for i, share := range split {
		shares[i] = share.InexactFloat64()
	}
	return shares, nil
}

func toDecimal(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, fmt.Errorf("amount %v is not finite", v)
	}
	return decimal.NewFromFloat(v), nil
}

// toEffective converts a nominal monthly return to real terms when requested
func (r *run) toEffective(nominal float64) float64 {
	if !r.req.RealTerms {
		return nominal
	}
	return RealMonthlyReturn(nominal, r.monthlyInflation)
}

// effectiveReturn returns the return applied to a position in month m (1-based)
func (r *run) effectiveReturn(s *positionState, m int) float64 {
	if len(s.historical) == 0 {
		return s.effectiveReturn
	}
	return r.toEffective(s.historical[(m-1)%len(s.historical)])
}

// stepPrices grows every price by one month and accounts its dividends
// Returns the dividends generated this month across all policies
func (r *run) stepPrices(m int) float64 {
	generated := 0.0

	for i := range r.positions {
		s := &r.positions[i]

		// Dividends accrue on the price before this month's growth
		dividend := s.units * s.dividendYield * s.price

		grown := s.price * (1 + r.effectiveReturn(s, m)) * (1 + r.feeFactor)
		s.price = math.Max(grown, 0)

		// Accumulating dividends are already part of the growth rate; they are only reported.
		// Distributing dividends are paid out as cash and never added back to value.
		if s.instrument.DividendPolicy == domain.DividendPolicyDistributing {
			s.dividendsPaid += dividend
			s.yearDividends += dividend
			r.dividendsPaid += dividend
		}

		generated += dividend
	}

	return generated
}

// closeYear emits and resets the yearly dividend buckets every 12 months
func (r *run) closeYear(m int) {
	if m%domain.MonthsPerYear != 0 {
		return
	}

	for i := range r.positions {
		s := &r.positions[i]
		s.yearlyDividends = append(s.yearlyDividends, s.yearDividends)
		s.yearDividends = 0
	}
}

// contribute injects the scheduled contribution when m is a checkpoint month
func (r *run) contribute(m int) {
	if r.contributionInterval == 0 || m%r.contributionInterval != 0 {
		return
	}

	for i := range r.positions {
		s := &r.positions[i]
		share := r.contributionShares[i]

		if s.price <= 0 {
			r.guard(m, s, domain.GuardNonPositivePrice)
			continue
		}
		if share <= 0 {
			r.guard(m, s, domain.GuardNonPositiveAllocation)
			continue
		}

		// Units are bought at this month's post-growth price
		s.units += share / s.price
		r.contributed += share
	}
}

func (r *run) guard(m int, s *positionState, reason domain.GuardReason) {
	r.guards = append(r.guards, domain.Guard{
		Month:        m,
		InstrumentID: s.instrument.ID,
		Reason:       reason,
	})
}

// recordMonth appends the aggregate point and the instrument points for month m
func (r *run) recordMonth(m int, generated float64) {
	total := r.req.SideCapital
	for i := range r.positions {
		s := &r.positions[i]
		v := s.value()
		s.points = append(s.points, domain.SeriesPoint{Month: m, Value: v})
		total += v
	}

	r.portfolio = append(r.portfolio, domain.PortfolioPoint{
		Month:                   m,
		TotalValue:              total,
		CumulativeContributed:   r.contributed,
		CumulativeDividendsPaid: r.dividendsPaid,
		DividendsGenerated:      generated,
	})
}

// result assembles the output series
func (r *run) result() *domain.ProjectionResult {
	series := make([]domain.InstrumentSeries, len(r.positions))
	for i := range r.positions {
		s := &r.positions[i]
		yearly := s.yearlyDividends
		if yearly == nil {
			yearly = []float64{}
		}
		series[i] = domain.InstrumentSeries{
			InstrumentID:    s.instrument.ID,
			Name:            s.instrument.DisplayName(),
			Points:          s.points,
			YearlyDividends: yearly,
		}
	}

	return &domain.ProjectionResult{
		Portfolio:   r.portfolio,
		Instruments: series,
		Guards:      r.guards,
	}
}
