package domain

import (
	"context"
	"time"
)

// InstrumentRepository defines the interface for instrument catalog persistence operations
type InstrumentRepository interface {
	// GetByID retrieves an instrument by its identifier
	// Returns a NotFoundError if the instrument does not exist
	GetByID(ctx context.Context, id string) (*Instrument, error)

	// List retrieves all instruments in a stable order
	List(ctx context.Context) ([]*Instrument, error)

	// Upsert creates the instrument or replaces the stored one with the same ID
	Upsert(ctx context.Context, instrument *Instrument) error
}

// InstrumentResolver maps an identifier to a resolved instrument.
// The projection engine consumes it once per position, before the month loop.
type InstrumentResolver interface {
	// Resolve returns the instrument or a NotFoundError
	Resolve(ctx context.Context, id string) (*Instrument, error)
}

// QuoteCache stores raw market-data payloads between catalog refreshes
type QuoteCache interface {
	// Get returns the cached payload and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the payload for the given time-to-live
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
