package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// schema creates the instrument catalog table; seq keeps the first insertion order across upserts
const schema = `
	CREATE TABLE IF NOT EXISTS instruments (
		id                 TEXT PRIMARY KEY,
		seq                BIGSERIAL,
		name               TEXT NOT NULL,
		symbol             TEXT NOT NULL DEFAULT '',
		currency           TEXT NOT NULL DEFAULT '',
		current_price      NUMERIC(20, 8) NOT NULL,
		annual_growth_rate DOUBLE PRECISION NOT NULL,
		dividend_yield     DOUBLE PRECISION NOT NULL,
		dividend_policy    TEXT NOT NULL,
		expense_ratio      DOUBLE PRECISION,
		monthly_returns    DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
		updated_at         TIMESTAMPTZ NOT NULL
	)
`

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=wealthflow sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// EnsureSchema creates the catalog table when it does not exist yet
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
