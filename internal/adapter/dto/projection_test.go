package dto

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulationRequest_ToDomain(t *testing.T) {
	body := `{
		"positions": [{"identifier": " vwce ", "quantity": "10.5"}, {"identifier": "AAPL", "quantity": 2}],
		"sideCapital": 500,
		"startingCapital": "1500.25",
		"horizonYears": 10,
		"annualFeeBps": 20,
		"contribution": {"amountPerEvent": 100, "eventsPerCheckpoint": 3, "frequency": "quarterly"},
		"realTerms": true,
		"annualInflation": 0.02,
		"growthModel": "historical"
	}`

	var req SimulationRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	got, err := req.ToDomain()

	require.NoError(t, err)
	assert.Equal(t, []domain.Position{{InstrumentID: "VWCE", Quantity: 10.5}, {InstrumentID: "AAPL", Quantity: 2}}, got.Positions)
	assert.Equal(t, 500.0, got.SideCapital)
	assert.Equal(t, 1500.25, got.DeclaredStartingCapital)
	assert.Equal(t, 10, got.HorizonYears)
	assert.Equal(t, 20.0, got.AnnualFeeBps)
	assert.Equal(t, &domain.ContributionSchedule{AmountPerEvent: 100, EventsPerCheckpoint: 3, Frequency: domain.FrequencyQuarterly}, got.Contribution)
	assert.True(t, got.RealTerms)
	assert.Equal(t, 0.02, got.AnnualInflation)
	assert.Equal(t, domain.GrowthModelHistorical, got.GrowthModel)
	assert.NoError(t, got.Validate(0))
}

func TestSimulationRequest_ToDomain_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  SimulationRequest
	}{
		{
			name: "unknown frequency",
			req:  SimulationRequest{Contribution: &ContributionDTO{Frequency: "weekly"}},
		},
		{
			name: "unknown growth model",
			req:  SimulationRequest{GrowthModel: "montecarlo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.ToDomain()
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestSimulationRequest_ToDomain_ZeroContributionWithoutFrequency(t *testing.T) {
	req := SimulationRequest{
		Positions:    []PositionDTO{{Identifier: "VWCE"}},
		HorizonYears: 1,
		Contribution: &ContributionDTO{},
	}

	got, err := req.ToDomain()

	require.NoError(t, err)
	assert.False(t, got.Contribution.Enabled())
	assert.NoError(t, got.Validate(0))
}

func TestFromResult(t *testing.T) {
	res := &domain.ProjectionResult{
		RunID: uuid.MustParse("6f1c9a3e-1d2b-4c5d-8e9f-0a1b2c3d4e5f"),
		Portfolio: []domain.PortfolioPoint{
			{Month: 0, TotalValue: 1000, CumulativeContributed: 1000},
			{Month: 1, TotalValue: 1006.434, CumulativeContributed: 1000, DividendsGenerated: 1.2449},
		},
		Instruments: []domain.InstrumentSeries{
			{InstrumentID: "VWCE", Name: "All-World", Points: []domain.SeriesPoint{{Month: 0, Value: 1000}, {Month: 1, Value: 1006.436}}, YearlyDividends: []float64{}},
		},
		Guards: []domain.Guard{{Month: 1, InstrumentID: "VWCE", Reason: domain.GuardNonPositivePrice}},
	}

	got := FromResult(res)

	assert.Equal(t, "6f1c9a3e-1d2b-4c5d-8e9f-0a1b2c3d4e5f", got.RunID)
	assert.Equal(t, 1006.43, got.Portfolio[1].TotalValue)
	assert.Equal(t, 1.24, got.Portfolio[1].DividendsGenerated)
	assert.Equal(t, 1006.44, got.Instruments[0].Points[1].Value)
	assert.NotNil(t, got.Instruments[0].YearlyDividends)
	assert.Equal(t, []GuardDTO{{Month: 1, Identifier: "VWCE", Reason: "non_positive_price"}}, got.Guards)
}

func TestFromInstrument(t *testing.T) {
	inst := &domain.Instrument{ID: "AAPL", CurrentPrice: 190, DividendPolicy: domain.DividendPolicyDistributing, MonthlyReturns: make([]float64, 24)}

	got := FromInstrument(inst)

	assert.Equal(t, "AAPL", got.Name)
	assert.Equal(t, "DISTRIBUTING", got.DividendPolicy)
	assert.Equal(t, 24, got.HistoryMonths)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, -1.24, Round2(-1.235))
	assert.Equal(t, 100.0, Round2(100))

	assert.NotPanics(t, func() {
		assert.True(t, math.IsInf(Round2(math.Inf(1)), 1))
		assert.True(t, math.IsInf(Round2(math.Inf(-1)), -1))
		assert.True(t, math.IsNaN(Round2(math.NaN())))
	})
}
