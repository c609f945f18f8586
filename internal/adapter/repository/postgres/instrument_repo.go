package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-projection/internal/domain"
)

// instrumentRepository implements domain.InstrumentRepository
type instrumentRepository struct {
	db *DB
}

// NewInstrumentRepository creates a new instrument repository
func NewInstrumentRepository(db *DB) domain.InstrumentRepository {
	return &instrumentRepository{db: db}
}

const selectInstrument = `
	SELECT id, name, symbol, currency, current_price, annual_growth_rate,
	       dividend_yield, dividend_policy, expense_ratio, monthly_returns, updated_at
	FROM instruments
`

// GetByID retrieves an instrument by its identifier
func (r *instrumentRepository) GetByID(ctx context.Context, id string) (*domain.Instrument, error) {
	row := r.db.QueryRowContext(ctx, selectInstrument+` WHERE id = $1`, id)

	inst, err := scanInstrument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("instrument", id)
		}
		return nil, fmt.Errorf("failed to get instrument by ID: %w", err)
	}

	return inst, nil
}

// List retrieves all instruments in insertion order
func (r *instrumentRepository) List(ctx context.Context) ([]*domain.Instrument, error) {
	rows, err := r.db.QueryContext(ctx, selectInstrument+` ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	defer rows.Close()

	instruments := make([]*domain.Instrument, 0)
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instruments: %w", err)
	}

	return instruments, nil
}

// Upsert inserts an instrument or replaces the stored one with the same identifier
func (r *instrumentRepository) Upsert(ctx context.Context, inst *domain.Instrument) error {
	query := `
		INSERT INTO instruments (id, name, symbol, currency, current_price, annual_growth_rate,
		                         dividend_yield, dividend_policy, expense_ratio, monthly_returns, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			currency = EXCLUDED.currency,
			current_price = EXCLUDED.current_price,
			annual_growth_rate = EXCLUDED.annual_growth_rate,
			dividend_yield = EXCLUDED.dividend_yield,
			dividend_policy = EXCLUDED.dividend_policy,
			expense_ratio = EXCLUDED.expense_ratio,
			monthly_returns = EXCLUDED.monthly_returns,
			updated_at = EXCLUDED.updated_at
	`

	var expenseRatio sql.NullFloat64
	if inst.ExpenseRatio != nil {
		expenseRatio = sql.NullFloat64{Float64: *inst.ExpenseRatio, Valid: true}
	}

	returns := inst.MonthlyReturns
	if returns == nil {
		returns = []float64{}
	}

	_, err := r.db.ExecContext(ctx, query,
		inst.ID,
		inst.Name,
		inst.Symbol,
		inst.Currency,
		decimal.NewFromFloat(inst.CurrentPrice).String(),
		inst.AnnualGrowthRate,
		inst.DividendYield,
		string(inst.DividendPolicy),
		expenseRatio,
		pq.Float64Array(returns),
		inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert instrument: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstrument(row scanner) (*domain.Instrument, error) {
	var inst domain.Instrument
	var priceStr string
	var policy string
	var expenseRatio sql.NullFloat64
	var returns pq.Float64Array

	err := row.Scan(
		&inst.ID,
		&inst.Name,
		&inst.Symbol,
		&inst.Currency,
		&priceStr,
		&inst.AnnualGrowthRate,
		&inst.DividendYield,
		&policy,
		&expenseRatio,
		&returns,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Parse current_price (NUMERIC)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse current_price: %w", err)
	}
	inst.CurrentPrice = price.InexactFloat64()

	inst.DividendPolicy = domain.DividendPolicy(policy)
	if expenseRatio.Valid {
		er := expenseRatio.Float64
		inst.ExpenseRatio = &er
	}
	if len(returns) > 0 {
		inst.MonthlyReturns = []float64(returns)
	}

	return &inst, nil
}
