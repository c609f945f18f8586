package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// UniverseItem is one curated row of a universe file
// Columns: isin,symbol,name[,acgrHint[,price,yield,expenseRatio]]
// The optional trailing columns seed the offline fallback when no quote can be fetched.
type UniverseItem struct {
	ID           string // ISIN, or the symbol when the ISIN column is blank
	Symbol       string
	Name         string
	ACGRHint     *float64
	Price        *float64
	Yield        *float64
	ExpenseRatio *float64
}

// LoadUniverse reads every file in order and concatenates their items.
// Identifiers repeated across files keep their first occurrence.
func LoadUniverse(paths ...string) ([]UniverseItem, error) {
	items := make([]UniverseItem, 0)
	seen := make(map[string]bool)

	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open universe file %q: %w", path, err)
		}

		parsed, err := ParseUniverse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse universe file %q: %w", path, err)
		}

		for _, item := range parsed {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			items = append(items, item)
		}
	}

	return items, nil
}

// ParseUniverse parses universe rows
// Logic:
//  1. Lines starting with '#' and blank lines are ignored
//  2. A first row starting with "isin" or "symbol" is treated as a header
//  3. Rows with fewer than two columns or a blank symbol are skipped
//  4. Blank ISIN falls back to the symbol, blank name falls back to the symbol
//  5. Unparseable optional numbers are ignored
func ParseUniverse(r io.Reader) ([]UniverseItem, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	items := make([]UniverseItem, 0)
	first := true

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}

		if first {
			first = false
			head := strings.ToLower(record[0])
			if head == "isin" || head == "symbol" {
				continue
			}
		}

		if len(record) < 2 || record[1] == "" {
			continue
		}

		item := UniverseItem{
			ID:     strings.ToUpper(record[0]),
			Symbol: record[1],
			Name:   column(record, 2),
		}
		if item.ID == "" {
			item.ID = strings.ToUpper(item.Symbol)
		}
		if item.Name == "" {
			item.Name = item.Symbol
		}

		item.ACGRHint = optionalFloat(column(record, 3))
		item.Price = optionalFloat(column(record, 4))
		item.Yield = optionalFloat(column(record, 5))
		item.ExpenseRatio = optionalFloat(column(record, 6))

		items = append(items, item)
	}

	return items, nil
}

func column(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func optionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
