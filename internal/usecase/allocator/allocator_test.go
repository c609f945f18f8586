package allocator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimals(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

func sumOf(shares []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s)
	}
	return total
}

func TestSplitContribution_ProportionalScenario(t *testing.T) {
	// Input: 200 per checkpoint
	// Starting quantities: 30 units and 10 units
	// Expected: 150 and 50

	shares, err := SplitContribution(decimal.NewFromInt(200), decimals("30", "10"))

	require.NoError(t, err)
	require.Len(t, shares, 2)

	assert.True(t, shares[0].Equal(decimal.NewFromInt(150)), "first position should receive 75%%, got %s", shares[0])
	assert.True(t, shares[1].Equal(decimal.NewFromInt(50)), "second position should receive 25%%, got %s", shares[1])

	// Verify total equals input
	assert.True(t, sumOf(shares).Equal(decimal.NewFromInt(200)), "total allocated should equal total amount")
}

func TestSplitContribution_NoPennyLost(t *testing.T) {
	// 100 / 3 does not divide evenly; the last share absorbs the leftover
	shares, err := SplitContribution(decimal.NewFromInt(100), decimals("1", "1", "1"))

	require.NoError(t, err)
	assert.True(t, shares[0].Equal(shares[1]))
	assert.True(t, shares[2].GreaterThan(shares[0]))
	assert.True(t, sumOf(shares).Equal(decimal.NewFromInt(100)))
}

func TestSplitContribution_AllZeroQuantitiesSplitEqually(t *testing.T) {
	shares, err := SplitContribution(decimal.NewFromInt(300), decimals("0", "0", "0"))

	require.NoError(t, err)
	for i, s := range shares {
		assert.True(t, s.Equal(decimal.NewFromInt(100)), "share %d: %s", i, s)
	}
}

func TestSplitContribution_ZeroWeightPositionGetsNothing(t *testing.T) {
	// Once any position has a starting quantity, zero-quantity positions receive nothing,
	// even when they come last
	shares, err := SplitContribution(decimal.NewFromInt(100), decimals("0", "3", "0"))

	require.NoError(t, err)
	assert.True(t, shares[0].IsZero())
	assert.True(t, shares[1].Equal(decimal.NewFromInt(100)))
	assert.True(t, shares[2].IsZero())
}

func TestSplitContribution_ZeroTotal(t *testing.T) {
	shares, err := SplitContribution(decimal.Zero, decimals("1", "2"))

	require.NoError(t, err)
	assert.True(t, shares[0].IsZero())
	assert.True(t, shares[1].IsZero())
}

func TestSplitContribution_DoesNotMutateWeights(t *testing.T) {
	weights := decimals("1", "3")
	_, err := SplitContribution(decimal.NewFromInt(40), weights)

	require.NoError(t, err)
	assert.Equal(t, "1", weights[0].String())
	assert.Equal(t, "3", weights[1].String())
}

func TestSplitContribution_Errors(t *testing.T) {
	tests := []struct {
		name     string
		total    decimal.Decimal
		weights  []decimal.Decimal
		errorMsg string
	}{
		{"Negative total", decimal.NewFromInt(-1), decimals("1"), "total amount must be non-negative"},
		{"Empty weights", decimal.NewFromInt(100), nil, "weights list cannot be empty"},
		{"Negative weight", decimal.NewFromInt(100), decimals("1", "-1"), "weights must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := SplitContribution(tt.total, tt.weights)

			assert.Nil(t, shares)
			assert.EqualError(t, err, tt.errorMsg)
		})
	}
}
