package marketdata

import (
	"context"
	"sync"
	"time"
)

// Snapshot is the market data known for one symbol at fetch time
type Snapshot struct {
	Symbol         string
	Name           string
	Currency       string
	Price          float64
	DividendYield  *float64
	ExpenseRatio   *float64
	MonthlyReturns []float64 // oldest first
}

// Provider fetches market data snapshots
type Provider interface {
	Snapshot(ctx context.Context, symbol string) (*Snapshot, error)
}

// MemoryQuoteCache is an in-process QuoteCache with per-entry expiry
type MemoryQuoteCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryQuoteCache creates an empty MemoryQuoteCache
func NewMemoryQuoteCache() *MemoryQuoteCache {
	return &MemoryQuoteCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached value, or false when missing or expired
func (c *MemoryQuoteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a copy of value; a ttl <= 0 never expires
func (c *MemoryQuoteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	return nil
}
