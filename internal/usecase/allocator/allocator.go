package allocator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// SplitContribution splits a checkpoint amount across positions
// Returns one share per weight, in the same order
// Logic:
//  1. Weights are the positions' ORIGINAL starting quantities (not current units)
//  2. If the weights sum to exactly zero, split equally across all positions
//  3. Otherwise each share is totalAmount * weight / sum(weights)
//  4. Assign the division leftover to the last position that receives a share
//
// Safety: Ensures the shares add up to the total amount exactly (no penny lost).
// A zero total yields all-zero shares; callers decide whether to skip them.
func SplitContribution(totalAmount decimal.Decimal, weights []decimal.Decimal) ([]decimal.Decimal, error) {
	if totalAmount.IsNegative() {
		return nil, errors.New("total amount must be non-negative")
	}

	if len(weights) == 0 {
		return nil, errors.New("weights list cannot be empty")
	}

	sum := decimal.Zero
	for _, w := range weights {
		if w.IsNegative() {
			return nil, errors.New("weights must be non-negative")
		}
		sum = sum.Add(w)
	}

	shares := make([]decimal.Decimal, len(weights))
	last := len(weights) - 1

	if sum.IsZero() {
		// Step 1: Nothing held at start, so no proportions exist. Split equally.
		equal := totalAmount.Div(decimal.NewFromInt(int64(len(weights))))
		for i := range shares {
			shares[i] = equal
		}
	} else {
		// Step 2: Proportional to the starting quantities
		for i, w := range weights {
			shares[i] = totalAmount.Mul(w).Div(sum)
			if w.IsPositive() {
				last = i
			}
		}
	}

	// Step 3: The leftover of the division goes to the last receiving position
	allocated := decimal.Zero
	for i, share := range shares {
		if i != last {
			allocated = allocated.Add(share)
		}
	}
	shares[last] = totalAmount.Sub(allocated)

	// Safety check: Ensure total allocation equals total amount exactly
	totalAllocated := decimal.Zero
	for _, share := range shares {
		totalAllocated = totalAllocated.Add(share)
	}
	if !totalAllocated.Equal(totalAmount) {
		return nil, errors.New("total allocation does not equal total amount")
	}

	return shares, nil
}
