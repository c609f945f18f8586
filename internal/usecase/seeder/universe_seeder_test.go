package seeder

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/simaogato/wealthflow-projection/internal/marketdata"
	"github.com/simaogato/wealthflow-projection/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalog is a mock implementation of Catalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetInstrument(ctx context.Context, id string) (*domain.Instrument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instrument), args.Error(1)
}

func (m *MockCatalog) ListInstruments(ctx context.Context, query string) ([]*domain.Instrument, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Instrument), args.Error(1)
}

func (m *MockCatalog) SaveInstrument(ctx context.Context, inst *domain.Instrument) error {
	args := m.Called(ctx, inst)
	return args.Error(0)
}

// MockProvider is a mock implementation of marketdata.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Snapshot(ctx context.Context, symbol string) (*marketdata.Snapshot, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketdata.Snapshot), args.Error(1)
}

func ptr(v float64) *float64 { return &v }

func flatMonthly(annual float64, n int) []float64 {
	r := math.Pow(1+annual, 1.0/12.0) - 1
	s := make([]float64, n)
	for i := range s {
		s[i] = r
	}
	return s
}

var universe = []marketdata.UniverseItem{
	{ID: "IE00B4L5Y983", Symbol: "IWDA.AS", Name: "iShares Core MSCI World UCITS ETF", ACGRHint: ptr(0.08)},
	{ID: "US0378331005", Symbol: "AAPL", Name: "Apple Inc.", Price: ptr(190)},
}

func TestUniverseSeeder_Seed_Online(t *testing.T) {
	ctx := context.Background()
	catalog := new(MockCatalog)
	provider := new(MockProvider)
	m := metrics.NewMetrics(nil)
	seeder := NewUniverseSeeder(catalog, provider, universe, m, zerolog.Nop())

	provider.On("Snapshot", mock.Anything, "IWDA.AS").Return(&marketdata.Snapshot{
		Symbol:         "IWDA.AS",
		Name:           "ISHARES WORLD",
		Currency:       "USD",
		Price:          101.5,
		DividendYield:  ptr(0),
		MonthlyReturns: flatMonthly(0.09, 150),
	}, nil)
	provider.On("Snapshot", mock.Anything, "AAPL").Return(&marketdata.Snapshot{
		Symbol:        "AAPL",
		Currency:      "USD",
		Price:         210,
		DividendYield: ptr(0.005),
		ExpenseRatio:  ptr(0),
	}, nil)

	catalog.On("SaveInstrument", ctx, mock.MatchedBy(func(inst *domain.Instrument) bool {
		return inst.ID == "IE00B4L5Y983" &&
			inst.Name == "iShares Core MSCI World UCITS ETF" &&
			inst.CurrentPrice == 101.5 &&
			math.Abs(inst.AnnualGrowthRate-0.09) < 1e-9 &&
			inst.DividendPolicy == domain.DividendPolicyAccumulating &&
			*inst.ExpenseRatio == 0.002 &&
			len(inst.MonthlyReturns) == 120
	})).Return(nil)
	catalog.On("SaveInstrument", ctx, mock.MatchedBy(func(inst *domain.Instrument) bool {
		return inst.ID == "US0378331005" &&
			inst.CurrentPrice == 210 &&
			inst.DividendPolicy == domain.DividendPolicyDistributing &&
			*inst.ExpenseRatio == 0 &&
			inst.AnnualGrowthRate == marketdata.DefaultACGR
	})).Return(nil)
	catalog.On("ListInstruments", ctx, "").Return([]*domain.Instrument{{}, {}}, nil)

	summary, err := seeder.Seed(ctx)

	require.NoError(t, err)
	assert.Equal(t, Summary{Refreshed: 2}, summary)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues(metrics.OutcomeRefreshed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InstrumentCount))
	catalog.AssertExpectations(t)
	catalog.AssertNotCalled(t, "GetInstrument", mock.Anything, mock.Anything)
}

func TestUniverseSeeder_Seed_FallbackWhenQuoteFails(t *testing.T) {
	ctx := context.Background()
	catalog := new(MockCatalog)
	provider := new(MockProvider)
	seeder := NewUniverseSeeder(catalog, provider, universe, nil, zerolog.Nop())

	provider.On("Snapshot", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

	// IWDA is already stored, AAPL is not
	catalog.On("GetInstrument", ctx, "IE00B4L5Y983").Return(&domain.Instrument{ID: "IE00B4L5Y983"}, nil)
	catalog.On("GetInstrument", ctx, "US0378331005").Return(nil, domain.NewNotFoundError("instrument", "US0378331005"))

	catalog.On("SaveInstrument", ctx, mock.MatchedBy(func(inst *domain.Instrument) bool {
		return inst.ID == "US0378331005" &&
			inst.CurrentPrice == 190 &&
			inst.DividendYield == 0.005 &&
			inst.AnnualGrowthRate == marketdata.DefaultACGR
	})).Return(nil)

	summary, err := seeder.Seed(ctx)

	require.NoError(t, err)
	assert.Equal(t, Summary{Fallback: 1, Skipped: 1}, summary)
	catalog.AssertExpectations(t)
	catalog.AssertNumberOfCalls(t, "SaveInstrument", 1)
}

func TestUniverseSeeder_Seed_OfflineOnly(t *testing.T) {
	ctx := context.Background()
	catalog := new(MockCatalog)
	seeder := NewUniverseSeeder(catalog, nil, universe, nil, zerolog.Nop())

	catalog.On("GetInstrument", ctx, mock.Anything).Return(nil, domain.NewNotFoundError("instrument", "x"))
	catalog.On("SaveInstrument", ctx, mock.MatchedBy(func(inst *domain.Instrument) bool {
		return inst.ID == "IE00B4L5Y983"
	})).Run(func(args mock.Arguments) {
		inst := args.Get(1).(*domain.Instrument)
		// Hint is used, no price column means the fallback price
		assert.Equal(t, 0.08, inst.AnnualGrowthRate)
		assert.Equal(t, 1.0, inst.CurrentPrice)
		assert.Equal(t, domain.DividendPolicyDistributing, inst.DividendPolicy) // .AS default yield is 2%
	}).Return(nil)
	catalog.On("SaveInstrument", ctx, mock.MatchedBy(func(inst *domain.Instrument) bool {
		return inst.ID == "US0378331005"
	})).Return(nil)

	summary, err := seeder.Seed(ctx)

	require.NoError(t, err)
	assert.Equal(t, Summary{Fallback: 2}, summary)
	catalog.AssertExpectations(t)
}

func TestUniverseSeeder_Seed_AllFailed(t *testing.T) {
	ctx := context.Background()
	catalog := new(MockCatalog)
	seeder := NewUniverseSeeder(catalog, nil, universe, nil, zerolog.Nop())

	catalog.On("GetInstrument", ctx, mock.Anything).Return(nil, domain.NewNotFoundError("instrument", "x"))
	catalog.On("SaveInstrument", ctx, mock.Anything).Return(errors.New("read-only database"))

	summary, err := seeder.Seed(ctx)

	assert.EqualError(t, err, "all 2 universe items failed")
	assert.Equal(t, 2, summary.Failed)
}

func TestUniverseSeeder_Seed_StorageReadError(t *testing.T) {
	ctx := context.Background()
	catalog := new(MockCatalog)
	items := universe[:1]
	seeder := NewUniverseSeeder(catalog, nil, items, nil, zerolog.Nop())

	catalog.On("GetInstrument", ctx, "IE00B4L5Y983").Return(nil, errors.New("connection reset"))

	summary, err := seeder.Seed(ctx)

	assert.Error(t, err)
	assert.Equal(t, Summary{Failed: 1}, summary)
	catalog.AssertNotCalled(t, "SaveInstrument", mock.Anything, mock.Anything)
}

func TestUniverseSeeder_Run_CancelledContext(t *testing.T) {
	catalog := new(MockCatalog)
	provider := new(MockProvider)
	seeder := NewUniverseSeeder(catalog, provider, universe, nil, zerolog.Nop())

	provider.On("Snapshot", mock.Anything, mock.Anything).Return(nil, context.Canceled).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := seeder.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	catalog.AssertNotCalled(t, "SaveInstrument", mock.Anything, mock.Anything)
}
