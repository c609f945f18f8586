package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUniverse = `# curated core list
isin,symbol,name,acgrHint,price,yield,expenseRatio
IE00B4L5Y983,IWDA.AS,iShares Core MSCI World UCITS ETF,0.085,92.4,0,0.002

,AAPL,Apple Inc.
us5949181045,MSFT,,not-a-number
IE00B3RBWM25,VWRL.AS,Vanguard FTSE All-World,0.07,110.2,0.018
broken-row-only-one-column
IE00000000X1,,Missing Symbol
`

func TestParseUniverse(t *testing.T) {
	items, err := ParseUniverse(strings.NewReader(sampleUniverse))

	require.NoError(t, err)
	require.Len(t, items, 4)

	iwda := items[0]
	assert.Equal(t, "IE00B4L5Y983", iwda.ID)
	assert.Equal(t, "IWDA.AS", iwda.Symbol)
	require.NotNil(t, iwda.ACGRHint)
	assert.Equal(t, 0.085, *iwda.ACGRHint)
	require.NotNil(t, iwda.Price)
	assert.Equal(t, 92.4, *iwda.Price)
	require.NotNil(t, iwda.ExpenseRatio)
	assert.Equal(t, 0.002, *iwda.ExpenseRatio)

	// Blank ISIN falls back to the symbol
	assert.Equal(t, "AAPL", items[1].ID)
	assert.Equal(t, "Apple Inc.", items[1].Name)
	assert.Nil(t, items[1].ACGRHint)

	// Blank name falls back to the symbol, bad numbers are ignored, identifiers are upper-cased
	assert.Equal(t, "US5949181045", items[2].ID)
	assert.Equal(t, "MSFT", items[2].Name)
	assert.Nil(t, items[2].ACGRHint)

	assert.Equal(t, "IE00B3RBWM25", items[3].ID)
	require.NotNil(t, items[3].Yield)
	assert.Equal(t, 0.018, *items[3].Yield)
	assert.Nil(t, items[3].ExpenseRatio)
}

func TestParseUniverse_WithoutHeader(t *testing.T) {
	items, err := ParseUniverse(strings.NewReader("IE00B4L5Y983,IWDA.AS,World\n"))

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "World", items[0].Name)
}

func TestLoadUniverse_MergesFilesAndSkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "core.csv")
	second := filepath.Join(dir, "us.csv")

	require.NoError(t, os.WriteFile(first, []byte("isin,symbol,name\nIE00B4L5Y983,IWDA.AS,World\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("IE00B4L5Y983,IWDA.L,World (London)\n,NVDA,NVIDIA\n"), 0o644))

	items, err := LoadUniverse(first, " ", second)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "IWDA.AS", items[0].Symbol)
	assert.Equal(t, "NVDA", items[1].ID)
}

func TestLoadUniverse_MissingFile(t *testing.T) {
	_, err := LoadUniverse(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorContains(t, err, "failed to open universe file")
}

func TestMemoryQuoteCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryQuoteCache()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"price":1}`)
	require.NoError(t, cache.Set(ctx, "k", value, time.Minute))
	value[0] = 'X' // the cache keeps its own copy

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"price":1}`, string(got))

	now = now.Add(time.Minute)
	_, ok, _ = cache.Get(ctx, "k")
	assert.False(t, ok, "entry expires once its ttl has elapsed")

	require.NoError(t, cache.Set(ctx, "forever", []byte("v"), 0))
	now = now.Add(1000 * time.Hour)
	_, ok, _ = cache.Get(ctx, "forever")
	assert.True(t, ok)
}
