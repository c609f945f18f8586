// Package report turns a projection result into yearly summary rows and markdown.
package report

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthflow-projection/internal/domain"
)

// DefaultCurrency is used when the caller does not name one; catalog prices are in USD
const DefaultCurrency = money.USD

// YearRow summarizes the portfolio at the end of one year
type YearRow struct {
	Year               int
	Value              float64
	Contributed        float64
	DividendsPaid      float64 // cumulative
	DividendsGenerated float64 // during this year
}

// Gain is the value above the contributed capital
func (r YearRow) Gain() float64 {
	return r.Value - r.Contributed
}

// InstrumentRow summarizes one instrument over the whole horizon
type InstrumentRow struct {
	InstrumentID  string
	Name          string
	FinalValue    float64
	DividendsPaid float64
}

// Yearly returns one row for month 0 and one per completed year
func Yearly(res *domain.ProjectionResult) []YearRow {
	rows := make([]YearRow, 0, len(res.Portfolio)/domain.MonthsPerYear+1)
	generated := 0.0

	for _, p := range res.Portfolio {
		if p.Month > 0 {
			generated += p.DividendsGenerated
		}
		if p.Month%domain.MonthsPerYear != 0 {
			continue
		}
		rows = append(rows, YearRow{
			Year:               p.Month / domain.MonthsPerYear,
			Value:              p.TotalValue,
			Contributed:        p.CumulativeContributed,
			DividendsPaid:      p.CumulativeDividendsPaid,
			DividendsGenerated: generated,
		})
		generated = 0
	}

	return rows
}

// Instruments returns the per-instrument totals in result order
func Instruments(res *domain.ProjectionResult) []InstrumentRow {
	rows := make([]InstrumentRow, 0, len(res.Instruments))
	for _, s := range res.Instruments {
		row := InstrumentRow{InstrumentID: s.InstrumentID, Name: s.Name}
		if n := len(s.Points); n > 0 {
			row.FinalValue = s.Points[n-1].Value
		}
		for _, d := range s.YearlyDividends {
			row.DividendsPaid += d
		}
		rows = append(rows, row)
	}
	return rows
}

// Format renders an amount in the currency's display form, rounded to its minor unit
func Format(amount float64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	m := money.New(0, currency)
	fraction := int32(m.Currency().Fraction)
	minor := decimal.NewFromFloat(amount).Round(fraction).Shift(fraction).IntPart()
	return money.New(minor, currency).Display()
}

// Markdown renders the yearly and per-instrument tables
func Markdown(res *domain.ProjectionResult, currency string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Projection %s\n\n", res.RunID)

	b.WriteString("| Year | Value | Contributed | Gain | Dividends paid | Dividends generated |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range Yearly(res) {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			r.Year,
			Format(r.Value, currency),
			Format(r.Contributed, currency),
			Format(r.Gain(), currency),
			Format(r.DividendsPaid, currency),
			Format(r.DividendsGenerated, currency),
		)
	}

	if rows := Instruments(res); len(rows) > 0 {
		b.WriteString("\n## Instruments\n\n")
		b.WriteString("| Instrument | Identifier | Final value | Dividends paid |\n")
		b.WriteString("|---|---|---:|---:|\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				escape(r.Name), r.InstrumentID, Format(r.FinalValue, currency), Format(r.DividendsPaid, currency))
		}
	}

	if n := len(res.Guards); n > 0 {
		fmt.Fprintf(&b, "\n_%d contribution step(s) skipped._\n", n)
	}

	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
