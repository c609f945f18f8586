package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simaogato/wealthflow-projection/internal/adapter/dto"
)

func TestInstrumentsMarkdown(t *testing.T) {
	md := instrumentsMarkdown([]dto.InstrumentDTO{{
		Identifier:       "IE00BK5BQT80",
		Name:             "Vanguard FTSE All-World",
		Currency:         "USD",
		CurrentPrice:     1234.5,
		AnnualGrowthRate: 0.071,
		DividendYield:    0,
		DividendPolicy:   "ACCUMULATING",
		HistoryMonths:    120,
	}})

	assert.Contains(t, md, "| IE00BK5BQT80 | Vanguard FTSE All-World | $1,234.50 | 7.10% | 0.00% | ACCUMULATING | 120m |")
}
