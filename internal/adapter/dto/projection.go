// Package dto maps transport payloads to domain types and back.
// Both the gRPC and the HTTP adapters speak these shapes.
package dto

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-projection/internal/domain"
)

// PositionDTO is one holding in a simulation request
type PositionDTO struct {
	Identifier string          `json:"identifier"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// ContributionDTO is the optional recurring contribution
type ContributionDTO struct {
	AmountPerEvent      decimal.Decimal `json:"amountPerEvent"`
	EventsPerCheckpoint int             `json:"eventsPerCheckpoint"`
	Frequency           string          `json:"frequency"`
}

// SimulationRequest is the wire form of a projection request.
// Amounts accept JSON numbers or strings.
type SimulationRequest struct {
	Positions       []PositionDTO    `json:"positions"`
	SideCapital     decimal.Decimal  `json:"sideCapital"`
	StartingCapital decimal.Decimal  `json:"startingCapital"`
	HorizonYears    int              `json:"horizonYears"`
	AnnualFeeBps    decimal.Decimal  `json:"annualFeeBps"`
	Contribution    *ContributionDTO `json:"contribution,omitempty"`
	RealTerms       bool             `json:"realTerms"`
	AnnualInflation decimal.Decimal  `json:"annualInflation"`
	GrowthModel     string           `json:"growthModel,omitempty"`
}

// ToDomain converts the request. Range checks are left to ProjectionRequest.Validate;
// only enum parsing can fail here.
func (r *SimulationRequest) ToDomain() (*domain.ProjectionRequest, error) {
	model, err := domain.ParseGrowthModel(r.GrowthModel)
	if err != nil {
		return nil, err
	}

	req := &domain.ProjectionRequest{
		Positions:               make([]domain.Position, 0, len(r.Positions)),
		SideCapital:             r.SideCapital.InexactFloat64(),
		DeclaredStartingCapital: r.StartingCapital.InexactFloat64(),
		HorizonYears:            r.HorizonYears,
		AnnualFeeBps:            r.AnnualFeeBps.InexactFloat64(),
		RealTerms:               r.RealTerms,
		AnnualInflation:         r.AnnualInflation.InexactFloat64(),
		GrowthModel:             model,
	}

	for _, p := range r.Positions {
		req.Positions = append(req.Positions, domain.Position{
			InstrumentID: strings.ToUpper(strings.TrimSpace(p.Identifier)),
			Quantity:     p.Quantity.InexactFloat64(),
		})
	}

	if c := r.Contribution; c != nil {
		schedule := &domain.ContributionSchedule{
			AmountPerEvent:      c.AmountPerEvent.InexactFloat64(),
			EventsPerCheckpoint: c.EventsPerCheckpoint,
		}
		// An empty frequency only matters when the amount is positive; Validate reports it then
		if strings.TrimSpace(c.Frequency) != "" {
			freq, err := domain.ParseFrequency(c.Frequency)
			if err != nil {
				return nil, err
			}
			schedule.Frequency = freq
		}
		req.Contribution = schedule
	}

	return req, nil
}

// PortfolioPointDTO is one month of the aggregate series
type PortfolioPointDTO struct {
	Month                   int     `json:"month"`
	TotalValue              float64 `json:"totalValue"`
	CumulativeContributed   float64 `json:"cumulativeContributed"`
	CumulativeDividendsPaid float64 `json:"cumulativeDividendsPaid"`
	DividendsGenerated      float64 `json:"dividendsGenerated"`
}

// SeriesPointDTO is one month of an instrument series
type SeriesPointDTO struct {
	Month int     `json:"month"`
	Value float64 `json:"value"`
}

// InstrumentSeriesDTO is the value path of one instrument
type InstrumentSeriesDTO struct {
	Identifier      string           `json:"identifier"`
	Name            string           `json:"name"`
	Points          []SeriesPointDTO `json:"points"`
	YearlyDividends []float64        `json:"yearlyDividends"`
}

// GuardDTO reports a skipped contribution step
type GuardDTO struct {
	Month      int    `json:"month"`
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

// SimulationResponse is the wire form of a projection result
type SimulationResponse struct {
	RunID       string                `json:"runId"`
	Portfolio   []PortfolioPointDTO   `json:"portfolio"`
	Instruments []InstrumentSeriesDTO `json:"instruments"`
	Guards      []GuardDTO            `json:"guards,omitempty"`
}

// FromResult converts a projection result, rounding amounts to cents
func FromResult(res *domain.ProjectionResult) *SimulationResponse {
	out := &SimulationResponse{
		RunID:       res.RunID.String(),
		Portfolio:   make([]PortfolioPointDTO, len(res.Portfolio)),
		Instruments: make([]InstrumentSeriesDTO, len(res.Instruments)),
	}

	for i, p := range res.Portfolio {
		out.Portfolio[i] = PortfolioPointDTO{
			Month:                   p.Month,
			TotalValue:              Round2(p.TotalValue),
			CumulativeContributed:   Round2(p.CumulativeContributed),
			CumulativeDividendsPaid: Round2(p.CumulativeDividendsPaid),
			DividendsGenerated:      Round2(p.DividendsGenerated),
		}
	}

	for i, s := range res.Instruments {
		series := InstrumentSeriesDTO{
			Identifier:      s.InstrumentID,
			Name:            s.Name,
			Points:          make([]SeriesPointDTO, len(s.Points)),
			YearlyDividends: make([]float64, len(s.YearlyDividends)),
		}
		for j, p := range s.Points {
			series.Points[j] = SeriesPointDTO{Month: p.Month, Value: Round2(p.Value)}
		}
		for j, d := range s.YearlyDividends {
			series.YearlyDividends[j] = Round2(d)
		}
		out.Instruments[i] = series
	}

	for _, g := range res.Guards {
		out.Guards = append(out.Guards, GuardDTO{Month: g.Month, Identifier: g.InstrumentID, Reason: string(g.Reason)})
	}

	return out
}

// InstrumentDTO is the catalog view of an instrument
type InstrumentDTO struct {
	Identifier       string    `json:"identifier"`
	Name             string    `json:"name"`
	Symbol           string    `json:"symbol,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	CurrentPrice     float64   `json:"currentPrice"`
	AnnualGrowthRate float64   `json:"annualGrowthRate"`
	DividendYield    float64   `json:"dividendYield"`
	DividendPolicy   string    `json:"dividendPolicy"`
	ExpenseRatio     *float64  `json:"expenseRatio,omitempty"`
	HistoryMonths    int       `json:"historyMonths"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// FromInstrument converts a catalog entry
func FromInstrument(inst *domain.Instrument) InstrumentDTO {
	return InstrumentDTO{
		Identifier:       inst.ID,
		Name:             inst.DisplayName(),
		Symbol:           inst.Symbol,
		Currency:         inst.Currency,
		CurrentPrice:     inst.CurrentPrice,
		AnnualGrowthRate: inst.AnnualGrowthRate,
		DividendYield:    inst.DividendYield,
		DividendPolicy:   string(inst.DividendPolicy),
		ExpenseRatio:     inst.ExpenseRatio,
		HistoryMonths:    len(inst.MonthlyReturns),
		UpdatedAt:        inst.UpdatedAt,
	}
}

// FromInstruments converts a catalog listing
func FromInstruments(list []*domain.Instrument) []InstrumentDTO {
	out := make([]InstrumentDTO, len(list))
	for i, inst := range list {
		out[i] = FromInstrument(inst)
	}
	return out
}

// Round2 rounds half away from zero to two decimal places.
// NaN and infinities are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
