// Package memory keeps the instrument catalog in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/simaogato/wealthflow-projection/internal/domain"
)

// InstrumentRepository implements domain.InstrumentRepository without persistence.
// Stored values are copied on the way in and out.
type InstrumentRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*domain.Instrument
}

// NewInstrumentRepository creates an empty catalog
func NewInstrumentRepository() *InstrumentRepository {
	return &InstrumentRepository{byID: make(map[string]*domain.Instrument)}
}

// GetByID retrieves an instrument by its identifier
func (r *InstrumentRepository) GetByID(ctx context.Context, id string) (*domain.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("instrument", id)
	}
	return clone(inst), nil
}

// List retrieves all instruments in first-insertion order
func (r *InstrumentRepository) List(ctx context.Context) ([]*domain.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Instrument, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.byID[id]))
	}
	return out, nil
}

// Upsert stores the instrument, replacing any previous value with the same ID
func (r *InstrumentRepository) Upsert(ctx context.Context, inst *domain.Instrument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inst == nil || inst.ID == "" {
		return domain.NewValidationError("id", "instrument id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[inst.ID]; !exists {
		r.order = append(r.order, inst.ID)
	}
	r.byID[inst.ID] = clone(inst)
	return nil
}

func clone(inst *domain.Instrument) *domain.Instrument {
	c := *inst
	if inst.ExpenseRatio != nil {
		er := *inst.ExpenseRatio
		c.ExpenseRatio = &er
	}
	if inst.MonthlyReturns != nil {
		c.MonthlyReturns = append([]float64(nil), inst.MonthlyReturns...)
	}
	return &c
}
