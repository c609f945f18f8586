package projection

import "math"

// MonthlyRate converts an annual compound rate into its monthly equivalent
// Logic: (1 + annual)^(1/12) - 1
func MonthlyRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/12.0) - 1
}

// RealMonthlyReturn removes monthly inflation from a nominal monthly return
// Logic: (1 + nominal) / (1 + inflation) - 1
func RealMonthlyReturn(nominal, monthlyInflation float64) float64 {
	return (1+nominal)/(1+monthlyInflation) - 1
}

// MonthlyFeeFactor converts an annual fee in basis points into a monthly drag
// Logic: (1 - bps/10000)^(1/12) - 1, always <= 0
func MonthlyFeeFactor(annualFeeBps float64) float64 {
	return MonthlyRate(-annualFeeBps / 10000.0)
}
