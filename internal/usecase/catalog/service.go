package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simaogato/wealthflow-projection/internal/domain"
)

// CatalogService handles the instrument universe and acts as the projection's instrument resolver
type CatalogService struct {
	InstrumentRepo domain.InstrumentRepository
	Now            func() time.Time
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(instrumentRepo domain.InstrumentRepository) *CatalogService {
	return &CatalogService{
		InstrumentRepo: instrumentRepo,
		Now:            time.Now,
	}
}

// Resolve returns the instrument for an identifier
// Returns a NotFoundError for unknown identifiers; no default instrument is ever substituted
func (s *CatalogService) Resolve(ctx context.Context, id string) (*domain.Instrument, error) {
	id = normalizeID(id)
	if id == "" {
		return nil, domain.NewValidationError("identifier", "cannot be empty")
	}

	return s.InstrumentRepo.GetByID(ctx, id)
}

// GetInstrument is an alias of Resolve used by the read API
func (s *CatalogService) GetInstrument(ctx context.Context, id string) (*domain.Instrument, error) {
	return s.Resolve(ctx, id)
}

// ListInstruments returns the catalog in a stable order
// Logic: an empty query returns everything; otherwise the query is matched
// case-insensitively against identifier, symbol and name
func (s *CatalogService) ListInstruments(ctx context.Context, query string) ([]*domain.Instrument, error) {
	all, err := s.InstrumentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all, nil
	}

	matches := make([]*domain.Instrument, 0)
	for _, inst := range all {
		if matchesQuery(inst, query) {
			matches = append(matches, inst)
		}
	}

	return matches, nil
}

// SaveInstrument validates and stores an instrument, stamping its update time
func (s *CatalogService) SaveInstrument(ctx context.Context, inst *domain.Instrument) error {
	if inst == nil {
		return domain.NewValidationError("instrument", "cannot be empty")
	}

	inst.ID = normalizeID(inst.ID)
	if err := inst.Validate(); err != nil {
		return domain.NewValidationError("instrument", err.Error())
	}

	if inst.UpdatedAt.IsZero() {
		inst.UpdatedAt = s.Now().UTC()
	}

	if err := s.InstrumentRepo.Upsert(ctx, inst); err != nil {
		return fmt.Errorf("failed to save instrument %q: %w", inst.ID, err)
	}

	return nil
}

func normalizeID(id string) string {
	return domain.NormalizeInstrumentID(id)
}

func matchesQuery(inst *domain.Instrument, query string) bool {
	return strings.Contains(strings.ToLower(inst.ID), query) ||
		strings.Contains(strings.ToLower(inst.Symbol), query) ||
		strings.Contains(strings.ToLower(inst.Name), query)
}
