package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInstrumentRepository is a mock implementation of InstrumentRepository for testing
type MockInstrumentRepository struct {
	mock.Mock
}

func (m *MockInstrumentRepository) GetByID(ctx context.Context, id string) (*domain.Instrument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) List(ctx context.Context) ([]*domain.Instrument, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Instrument), args.Error(1)
}

func (m *MockInstrumentRepository) Upsert(ctx context.Context, inst *domain.Instrument) error {
	args := m.Called(ctx, inst)
	return args.Error(0)
}

func sampleInstruments() []*domain.Instrument {
	return []*domain.Instrument{
		{ID: "IE00B4L5Y983", Symbol: "IWDA.AS", Name: "iShares Core MSCI World", CurrentPrice: 90, AnnualGrowthRate: 0.07, DividendPolicy: domain.DividendPolicyAccumulating},
		{ID: "IE00B3RBWM25", Symbol: "VWRL.AS", Name: "Vanguard FTSE All-World", CurrentPrice: 110, AnnualGrowthRate: 0.065, DividendYield: 0.018, DividendPolicy: domain.DividendPolicyDistributing},
	}
}

func TestResolve_NormalizesIdentifier(t *testing.T) {
	ctx := context.Background()
	repo := new(MockInstrumentRepository)
	service := NewCatalogService(repo)

	inst := sampleInstruments()[0]
	repo.On("GetByID", ctx, "IE00B4L5Y983").Return(inst, nil)

	got, err := service.Resolve(ctx, "  ie00b4l5y983 ")

	require.NoError(t, err)
	assert.Equal(t, inst, got)
	repo.AssertExpectations(t)
}

func TestResolve_NotFoundPassesThrough(t *testing.T) {
	ctx := context.Background()
	repo := new(MockInstrumentRepository)
	service := NewCatalogService(repo)

	repo.On("GetByID", ctx, "XX0000000000").Return(nil, domain.NewNotFoundError("instrument", "XX0000000000"))

	got, err := service.Resolve(ctx, "XX0000000000")

	assert.Nil(t, got)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestResolve_BlankIdentifier(t *testing.T) {
	repo := new(MockInstrumentRepository)
	service := NewCatalogService(repo)

	_, err := service.GetInstrument(context.Background(), "   ")

	assert.True(t, errors.Is(err, domain.ErrValidation))
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestListInstruments(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		query       string
		expectedIDs []string
	}{
		{"Empty query returns all", "", []string{"IE00B4L5Y983", "IE00B3RBWM25"}},
		{"Match on name", "vanguard", []string{"IE00B3RBWM25"}},
		{"Match on symbol", "iwda", []string{"IE00B4L5Y983"}},
		{"Match on identifier", "IE00B", []string{"IE00B4L5Y983", "IE00B3RBWM25"}},
		{"No match", "bitcoin", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockInstrumentRepository)
			service := NewCatalogService(repo)
			repo.On("List", ctx).Return(sampleInstruments(), nil)

			got, err := service.ListInstruments(ctx, tt.query)

			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, inst := range got {
				ids = append(ids, inst.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestListInstruments_RepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockInstrumentRepository)
	service := NewCatalogService(repo)

	repo.On("List", ctx).Return(nil, errors.New("database is locked"))

	_, err := service.ListInstruments(ctx, "")

	assert.EqualError(t, err, "failed to list instruments: database is locked")
}

func TestSaveInstrument(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Valid instrument is stamped and stored", func(t *testing.T) {
		repo := new(MockInstrumentRepository)
		service := NewCatalogService(repo)
		service.Now = func() time.Time { return fixed }

		inst := &domain.Instrument{ID: " us0378331005", CurrentPrice: 180, AnnualGrowthRate: 0.1, DividendPolicy: domain.DividendPolicyDistributing}
		repo.On("Upsert", ctx, inst).Return(nil)

		err := service.SaveInstrument(ctx, inst)

		require.NoError(t, err)
		assert.Equal(t, "US0378331005", inst.ID)
		assert.Equal(t, fixed, inst.UpdatedAt)
		repo.AssertExpectations(t)
	})

	t.Run("Invalid instrument is rejected", func(t *testing.T) {
		repo := new(MockInstrumentRepository)
		service := NewCatalogService(repo)

		inst := &domain.Instrument{ID: "A", CurrentPrice: -1, DividendPolicy: domain.DividendPolicyAccumulating}

		err := service.SaveInstrument(ctx, inst)

		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Contains(t, err.Error(), "instrument price must be a non-negative number")
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("Repository failure is wrapped", func(t *testing.T) {
		repo := new(MockInstrumentRepository)
		service := NewCatalogService(repo)

		inst := &domain.Instrument{ID: "A", CurrentPrice: 1, DividendPolicy: domain.DividendPolicyAccumulating}
		repo.On("Upsert", ctx, inst).Return(errors.New("disk full"))

		err := service.SaveInstrument(ctx, inst)

		assert.EqualError(t, err, `failed to save instrument "A": disk full`)
	})

	t.Run("Nil instrument", func(t *testing.T) {
		service := NewCatalogService(new(MockInstrumentRepository))
		assert.True(t, errors.Is(service.SaveInstrument(ctx, nil), domain.ErrValidation))
	})
}
