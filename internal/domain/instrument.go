package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

// DividendPolicy represents how an instrument handles its dividends
type DividendPolicy string

const (
	// DividendPolicyAccumulating means dividends are reinvested inside the fund.
	// The growth rate already reflects them, so they never add units or value.
	DividendPolicyAccumulating DividendPolicy = "ACCUMULATING"
	// DividendPolicyDistributing means dividends are paid out as cash.
	// They are tracked but never added back to the instrument value.
	DividendPolicyDistributing DividendPolicy = "DISTRIBUTING"
)

// DefaultAccumulatingReportingYield is the annual yield used to report the dividends
// implicitly generated by accumulating instruments that report no yield at all.
const DefaultAccumulatingReportingYield = 0.015

// ParseDividendPolicy converts a case-insensitive policy name into a DividendPolicy
func ParseDividendPolicy(s string) (DividendPolicy, error) {
	switch DividendPolicy(strings.ToUpper(strings.TrimSpace(s))) {
	case DividendPolicyAccumulating:
		return DividendPolicyAccumulating, nil
	case DividendPolicyDistributing:
		return DividendPolicyDistributing, nil
	default:
		return "", NewValidationError("dividend_policy", "must be ACCUMULATING or DISTRIBUTING")
	}
}

// Instrument represents a resolved tradable instrument in the domain layer.
// Instruments are immutable once resolved; the projection engine only reads them.
type Instrument struct {
	ID               string // ISIN, or the symbol when no ISIN is known
	Name             string
	Symbol           string
	Currency         string
	CurrentPrice     float64
	AnnualGrowthRate float64 // long-run compound annual growth assumption, e.g. 0.08
	DividendYield    float64 // annual, e.g. 0.02
	DividendPolicy   DividendPolicy
	ExpenseRatio     *float64  // annual, informational
	MonthlyReturns   []float64 // optional historical monthly returns, oldest first
	UpdatedAt        time.Time
}

// Validate ensures the instrument adheres to domain rules
// Returns an error if validation fails
func (i *Instrument) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return errors.New("instrument id cannot be empty")
	}

	if !isFinite(i.CurrentPrice) || i.CurrentPrice < 0 {
		return errors.New("instrument price must be a non-negative number")
	}

	// A growth rate of -100% or worse has no monthly equivalent
	if !isFinite(i.AnnualGrowthRate) || i.AnnualGrowthRate <= -1 {
		return errors.New("instrument growth rate must be greater than -1")
	}

	if !isFinite(i.DividendYield) || i.DividendYield < 0 {
		return errors.New("instrument dividend yield must be a non-negative number")
	}

	if i.DividendPolicy != DividendPolicyAccumulating && i.DividendPolicy != DividendPolicyDistributing {
		return errors.New("instrument dividend policy must be ACCUMULATING or DISTRIBUTING")
	}

	if i.ExpenseRatio != nil && (!isFinite(*i.ExpenseRatio) || *i.ExpenseRatio < 0) {
		return errors.New("instrument expense ratio must be a non-negative number")
	}

	for _, r := range i.MonthlyReturns {
		if !isFinite(r) || r <= -1 {
			return errors.New("instrument monthly returns must be greater than -1")
		}
	}

	return nil
}

// DisplayName returns the name, falling back to the identifier
func (i *Instrument) DisplayName() string {
	if strings.TrimSpace(i.Name) != "" {
		return i.Name
	}
	return i.ID
}

// ReportingYield returns the annual yield used for the "dividends generated" figure.
// Accumulating instruments that report no yield use DefaultAccumulatingReportingYield
// so that the implicitly reinvested amount stays visible.
func (i *Instrument) ReportingYield() float64 {
	if i.DividendYield <= 0 && i.DividendPolicy == DividendPolicyAccumulating {
		return DefaultAccumulatingReportingYield
	}
	return i.DividendYield
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
