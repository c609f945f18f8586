package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Request bounds
const (
	MaxFeeBps              = 10000
	DefaultMaxHorizonYears = 100
	MonthsPerYear          = 12

	// MaxAmount bounds quantities, cash amounts and position values so that
	// a full horizon of growth stays within float64 range
	MaxAmount = 1e15
)

// NormalizeInstrumentID returns the catalog form of an identifier
func NormalizeInstrumentID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Frequency represents how often a contribution checkpoint occurs
type Frequency string

const (
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// ParseFrequency converts a case-insensitive frequency name into a Frequency
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if f.IntervalMonths() == 0 {
		return "", NewValidationError("contribution.frequency", "must be MONTHLY, QUARTERLY or YEARLY")
	}
	return f, nil
}

// IntervalMonths returns the number of months between two checkpoints.
// Unknown frequencies return 0.
func (f Frequency) IntervalMonths() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	default:
		return 0
	}
}

// GrowthModel selects how an instrument's monthly nominal return is derived
type GrowthModel string

const (
	// GrowthModelACGR derives a fixed monthly rate from the annual growth assumption
	GrowthModelACGR GrowthModel = "ACGR"
	// GrowthModelHistorical replays the instrument's monthly return series, cycling
	// when the horizon is longer than the series. Instruments without a series use ACGR.
	GrowthModelHistorical GrowthModel = "HISTORICAL"
)

// ParseGrowthModel converts a case-insensitive model name; empty means ACGR
func ParseGrowthModel(s string) (GrowthModel, error) {
	switch GrowthModel(strings.ToUpper(strings.TrimSpace(s))) {
	case "", GrowthModelACGR:
		return GrowthModelACGR, nil
	case GrowthModelHistorical:
		return GrowthModelHistorical, nil
	default:
		return "", NewValidationError("growth_model", "must be ACGR or HISTORICAL")
	}
}

// Position references an instrument and the number of units held at month 0
type Position struct {
	InstrumentID string
	Quantity     float64 // may be 0 to model a contribution-only plan
}

// ContributionSchedule describes a recurring cash injection (DCA)
type ContributionSchedule struct {
	AmountPerEvent      float64
	EventsPerCheckpoint int
	Frequency           Frequency
}

// Enabled reports whether the schedule injects anything at all
func (s *ContributionSchedule) Enabled() bool {
	return s != nil && s.AmountPerEvent > 0 && s.Frequency.IntervalMonths() > 0
}

// CheckpointAmount returns the lump sum injected at each checkpoint
func (s *ContributionSchedule) CheckpointAmount() float64 {
	if !s.Enabled() {
		return 0
	}
	return s.AmountPerEvent * float64(s.EventsPerCheckpoint)
}

// ProjectionRequest represents one projection run requested by a caller
type ProjectionRequest struct {
	Positions               []Position
	SideCapital             float64 // uninvested cash, added to the total every month
	DeclaredStartingCapital float64 // reported as month-0 contributed capital
	HorizonYears            int
	AnnualFeeBps            float64
	Contribution            *ContributionSchedule
	RealTerms               bool
	AnnualInflation         float64 // only used when RealTerms is set
	GrowthModel             GrowthModel
}

// Months returns the number of simulated months
func (r *ProjectionRequest) Months() int {
	return r.HorizonYears * MonthsPerYear
}

// Validate ensures the request adheres to domain rules before any state is built.
// maxHorizonYears caps the run size; values <= 0 use DefaultMaxHorizonYears.
func (r *ProjectionRequest) Validate(maxHorizonYears int) error {
	if maxHorizonYears <= 0 {
		maxHorizonYears = DefaultMaxHorizonYears
	}

	if len(r.Positions) == 0 {
		return NewValidationError("positions", "must have at least one position")
	}

	seen := make(map[string]bool, len(r.Positions))
	for i, p := range r.Positions {
		field := fmt.Sprintf("positions[%d]", i)
		id := NormalizeInstrumentID(p.InstrumentID)
		if id == "" {
			return NewValidationError(field+".identifier", "cannot be empty")
		}
		if seen[id] {
			return NewValidationError(field+".identifier", fmt.Sprintf("duplicate instrument %q", p.InstrumentID))
		}
		seen[id] = true

		if err := checkAmount(field+".quantity", p.Quantity); err != nil {
			return err
		}
	}

	if err := checkAmount("side_capital", r.SideCapital); err != nil {
		return err
	}

	if err := checkAmount("starting_capital", r.DeclaredStartingCapital); err != nil {
		return err
	}

	if r.HorizonYears < 1 {
		return NewValidationError("horizon_years", "must be positive")
	}
	if r.HorizonYears > maxHorizonYears {
		return NewValidationError("horizon_years", fmt.Sprintf("must be at most %d", maxHorizonYears))
	}

	if !isFinite(r.AnnualFeeBps) || r.AnnualFeeBps < 0 || r.AnnualFeeBps > MaxFeeBps {
		return NewValidationError("annual_fee_bps", fmt.Sprintf("must be between 0 and %d", MaxFeeBps))
	}

	if err := r.validateContribution(); err != nil {
		return err
	}

	// (1+inflation)^(1/12) is undefined at or below -100%
	if r.RealTerms && (!isFinite(r.AnnualInflation) || r.AnnualInflation <= -1) {
		return NewValidationError("annual_inflation", "must be greater than -1")
	}

	switch r.GrowthModel {
	case "", GrowthModelACGR, GrowthModelHistorical:
	default:
		return NewValidationError("growth_model", "must be ACGR or HISTORICAL")
	}

	return nil
}

// validateContribution checks the optional schedule.
// A missing schedule or a zero amount disables contributions and needs no further checks.
func (r *ProjectionRequest) validateContribution() error {
	c := r.Contribution
	if c == nil {
		return nil
	}

	if err := checkAmount("contribution.amount_per_event", c.AmountPerEvent); err != nil {
		return err
	}
	if c.AmountPerEvent == 0 {
		return nil
	}

	if c.EventsPerCheckpoint < 1 {
		return NewValidationError("contribution.events_per_checkpoint", "must be at least 1")
	}
	if c.AmountPerEvent*float64(c.EventsPerCheckpoint) > MaxAmount {
		return NewValidationError("contribution.events_per_checkpoint", fmt.Sprintf("checkpoint amount must be at most %g", MaxAmount))
	}

	if c.Frequency.IntervalMonths() == 0 {
		return NewValidationError("contribution.frequency", "must be MONTHLY, QUARTERLY or YEARLY")
	}

	return nil
}

// ValidatePositionValues checks the starting value of each position once its
// instrument is resolved. instruments must follow the order of r.Positions.
func (r *ProjectionRequest) ValidatePositionValues(instruments []*Instrument) error {
	for i, p := range r.Positions {
		if i >= len(instruments) || instruments[i] == nil {
			continue
		}
		if p.Quantity*instruments[i].CurrentPrice > MaxAmount {
			return NewValidationError(fmt.Sprintf("positions[%d].quantity", i),
				fmt.Sprintf("position value must be at most %g", MaxAmount))
		}
	}
	return nil
}

// checkAmount rejects negative, non-finite and oversized amounts
func checkAmount(field string, v float64) error {
	if !isFinite(v) || v < 0 {
		return NewValidationError(field, "must be non-negative")
	}
	if v > MaxAmount {
		return NewValidationError(field, fmt.Sprintf("must be at most %g", MaxAmount))
	}
	return nil
}

// PortfolioPoint is one month of the aggregate series
type PortfolioPoint struct {
	Month                   int
	TotalValue              float64
	CumulativeContributed   float64
	CumulativeDividendsPaid float64
	DividendsGenerated      float64 // generated during this month, all policies
}

// SeriesPoint is one month of an instrument series
type SeriesPoint struct {
	Month int
	Value float64
}

// InstrumentSeries is the value path of one held instrument
type InstrumentSeries struct {
	InstrumentID string
	Name         string
	Points       []SeriesPoint
	// YearlyDividends holds the cash dividends paid during each completed year
	// (distributing instruments only; zeros otherwise)
	YearlyDividends []float64
}

// GuardReason explains why a computation step was skipped
type GuardReason string

const (
	GuardNonPositivePrice      GuardReason = "non_positive_price"
	GuardNonPositiveAllocation GuardReason = "non_positive_allocation"
)

// Guard records a defensive skip during contribution injection.
// Guards never abort a run.
type Guard struct {
	Month        int
	InstrumentID string
	Reason       GuardReason
}

// ProjectionResult is the output of a projection run
type ProjectionResult struct {
	RunID       uuid.UUID
	Portfolio   []PortfolioPoint
	Instruments []InstrumentSeries
	Guards      []Guard
}

// Final returns the last aggregate point
func (r *ProjectionResult) Final() PortfolioPoint {
	if len(r.Portfolio) == 0 {
		return PortfolioPoint{}
	}
	return r.Portfolio[len(r.Portfolio)-1]
}
