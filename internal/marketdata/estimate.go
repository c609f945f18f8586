package marketdata

import (
	"math"
	"strings"

	"github.com/simaogato/wealthflow-projection/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Estimation bounds
const (
	DefaultACGR = 0.06

	// Estimates use at most ten years of monthly history and need at least one
	maxEstimationMonths = 120
	minEstimationMonths = 12

	// Single monthly returns are clipped to this magnitude before averaging
	monthlyReturnClip = 0.8

	// A curated hint is only trusted strictly inside (hintMin, hintMax)
	hintMin = -0.5
	hintMax = 1.0

	// Estimates outside [plausibleMin, plausibleMax] or further than hintTolerance from a hint lose to the hint
	plausibleMin  = -0.2
	plausibleMax  = 0.25
	hintTolerance = 0.20

	// Final clamp applied to every growth rate
	clampMin = -0.5
	clampMax = 0.4

	// Yields above this threshold mark an instrument as distributing
	distributingYieldThreshold = 0.0001

	defaultFundExpenseRatio = 0.002
)

// EstimateACGR annualizes a monthly return series through its mean log return
// Logic:
//  1. Use the last 120 months (at least 12 required)
//  2. Clip every monthly return to [-0.8, 0.8]
//  3. ACGR = exp(mean(log(1+r)) * 12) - 1
//
// Returns false when the series is too short or looks like a flat placeholder series.
func EstimateACGR(monthlyReturns []float64) (float64, bool) {
	n := len(monthlyReturns)
	if n < minEstimationMonths {
		return 0, false
	}
	if looksLikeDefaultSeries(monthlyReturns) {
		return 0, false
	}

	window := monthlyReturns
	if n > maxEstimationMonths {
		window = monthlyReturns[n-maxEstimationMonths:]
	}

	logs := make([]float64, 0, len(window))
	for _, r := range window {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		r = math.Max(-monthlyReturnClip, math.Min(monthlyReturnClip, r))
		logs = append(logs, math.Log1p(r))
	}
	if len(logs) < minEstimationMonths {
		return 0, false
	}

	return math.Expm1(stat.Mean(logs, nil) * 12), true
}

// looksLikeDefaultSeries reports whether a series is a constant equal to the monthly equivalent of DefaultACGR
func looksLikeDefaultSeries(returns []float64) bool {
	defaultMonthly := math.Pow(1+DefaultACGR, 1.0/12.0) - 1
	mean, variance := stat.PopMeanVariance(returns, nil)
	return variance < 1e-6 && math.Abs(mean-defaultMonthly) < 1e-5
}

// plausibleHint reports whether a curated hint may be used at all
func plausibleHint(hint *float64) bool {
	return hint != nil && *hint > hintMin && *hint < hintMax
}

// ResolveACGR combines an online estimate with an optional curated hint
// Logic:
//  1. Without a usable estimate: the plausible hint, else DefaultACGR
//  2. A plausible hint replaces estimates that are default-like, implausible or far off the hint
//  3. The result is clamped to [-0.5, 0.4]
func ResolveACGR(estimate float64, ok bool, hint *float64) float64 {
	if !ok || math.IsNaN(estimate) || math.IsInf(estimate, 0) {
		if plausibleHint(hint) {
			return clampACGR(*hint)
		}
		return DefaultACGR
	}

	if plausibleHint(hint) {
		defaultLike := math.Abs(estimate-DefaultACGR) < 1e-6
		implausible := estimate < plausibleMin || estimate > plausibleMax
		farOff := math.Abs(estimate-*hint) > hintTolerance
		if defaultLike || implausible || farOff {
			estimate = *hint
		}
	}

	return clampACGR(estimate)
}

func clampACGR(v float64) float64 {
	return math.Max(clampMin, math.Min(clampMax, v))
}

// PolicyForYield derives the dividend policy from the reported yield
func PolicyForYield(yield float64) domain.DividendPolicy {
	if yield > distributingYieldThreshold {
		return domain.DividendPolicyDistributing
	}
	return domain.DividendPolicyAccumulating
}

// DefaultYield is the conservative yield used when none can be fetched
func DefaultYield(symbol string) float64 {
	switch strings.ToUpper(symbol) {
	case "AAPL", "MSFT", "GOOGL", "META", "TSLA":
		return 0.005
	}

	upper := strings.ToUpper(symbol)
	if strings.HasSuffix(upper, ".L") || strings.HasSuffix(upper, ".DE") || strings.HasSuffix(upper, ".AS") {
		return 0.02
	}

	return 0
}

// DefaultExpenseRatio is the expense ratio used when none can be fetched.
// Fund-like names and all-caps tickers of at least three letters get 20 bps, others 0.
func DefaultExpenseRatio(symbol, name string) float64 {
	label := strings.ToUpper(name)
	if label == "" {
		label = strings.ToUpper(symbol)
	}

	if strings.Contains(label, "ETF") || strings.Contains(label, "UCITS") || strings.Contains(label, "INDEX") {
		return defaultFundExpenseRatio
	}
	if len(symbol) >= 3 && symbol == strings.ToUpper(symbol) {
		return defaultFundExpenseRatio
	}

	return 0
}

// MonthlyReturnsFromCloses converts a close series into simple monthly returns.
// Missing and non-positive closes are skipped.
func MonthlyReturnsFromCloses(closes []float64) []float64 {
	returns := make([]float64, 0, len(closes))
	prev := 0.0

	for _, c := range closes {
		if math.IsNaN(c) || c <= 0 {
			continue
		}
		if prev > 0 {
			returns = append(returns, c/prev-1)
		}
		prev = c
	}

	return returns
}
