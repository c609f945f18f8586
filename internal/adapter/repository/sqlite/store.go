// Package sqlite provides a SQLite-backed instrument catalog.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/wealthflow-projection/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
	CREATE TABLE IF NOT EXISTS instruments (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		symbol             TEXT NOT NULL DEFAULT '',
		currency           TEXT NOT NULL DEFAULT '',
		current_price      TEXT NOT NULL,
		annual_growth_rate REAL NOT NULL,
		dividend_yield     REAL NOT NULL,
		dividend_policy    TEXT NOT NULL,
		expense_ratio      REAL,
		monthly_returns    BLOB,
		updated_at         INTEGER NOT NULL
	)
`

// Store persists the instrument catalog in SQLite.
// It implements domain.InstrumentRepository.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite catalog and creates its schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

const selectInstrument = `
	SELECT id, name, symbol, currency, current_price, annual_growth_rate,
	       dividend_yield, dividend_policy, expense_ratio, monthly_returns, updated_at
	FROM instruments
`

// GetByID loads one instrument.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := s.sqlDB.QueryRowContext(ctx, selectInstrument+` WHERE id = ?`, id)
	inst, err := scanInstrument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("instrument", id)
		}
		return nil, fmt.Errorf("get instrument: %w", err)
	}
	return inst, nil
}

// List loads every instrument in first-insertion order.
func (s *Store) List(ctx context.Context) ([]*domain.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, selectInstrument+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()

	instruments := make([]*domain.Instrument, 0)
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instruments: %w", err)
	}
	return instruments, nil
}

// Upsert inserts or replaces one instrument; the row keeps its original position.
func (s *Store) Upsert(ctx context.Context, inst *domain.Instrument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inst == nil || strings.TrimSpace(inst.ID) == "" {
		return fmt.Errorf("instrument id is required")
	}

	var expenseRatio sql.NullFloat64
	if inst.ExpenseRatio != nil {
		expenseRatio = sql.NullFloat64{Float64: *inst.ExpenseRatio, Valid: true}
	}

	var returns []byte
	if len(inst.MonthlyReturns) > 0 {
		encoded, err := msgpack.Marshal(inst.MonthlyReturns)
		if err != nil {
			return fmt.Errorf("encode monthly returns: %w", err)
		}
		returns = encoded
	}

	updatedAt := inst.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO instruments (
		   id, name, symbol, currency, current_price, annual_growth_rate,
		   dividend_yield, dividend_policy, expense_ratio, monthly_returns, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   symbol = excluded.symbol,
		   currency = excluded.currency,
		   current_price = excluded.current_price,
		   annual_growth_rate = excluded.annual_growth_rate,
		   dividend_yield = excluded.dividend_yield,
		   dividend_policy = excluded.dividend_policy,
		   expense_ratio = excluded.expense_ratio,
		   monthly_returns = excluded.monthly_returns,
		   updated_at = excluded.updated_at`,
		inst.ID,
		inst.Name,
		inst.Symbol,
		inst.Currency,
		decimal.NewFromFloat(inst.CurrentPrice).String(),
		inst.AnnualGrowthRate,
		inst.DividendYield,
		string(inst.DividendPolicy),
		expenseRatio,
		returns,
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert instrument: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstrument(row scanner) (*domain.Instrument, error) {
	var (
		inst         domain.Instrument
		priceStr     string
		policy       string
		expenseRatio sql.NullFloat64
		returns      []byte
		updatedAt    int64
	)

	if err := row.Scan(
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
		&updatedAt,
	); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("parse current_price: %w", err)
	}
	inst.CurrentPrice = price.InexactFloat64()
	inst.DividendPolicy = domain.DividendPolicy(policy)
	inst.UpdatedAt = fromMillis(updatedAt)

	if expenseRatio.Valid {
		er := expenseRatio.Float64
		inst.ExpenseRatio = &er
	}
	if len(returns) > 0 {
		if err := msgpack.Unmarshal(returns, &inst.MonthlyReturns); err != nil {
			return nil, fmt.Errorf("decode monthly returns: %w", err)
		}
	}

	return &inst, nil
}
