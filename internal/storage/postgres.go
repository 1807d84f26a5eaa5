package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresMedium stores keys as rows of a two-column table.
type PostgresMedium struct {
	pool  *pgxpool.Pool
	table string // sanitized identifier
}

// NewPostgresMedium returns a medium backed by table, creating the table if
// it does not exist yet.
func NewPostgresMedium(ctx context.Context, pool *pgxpool.Pool, table string) (*PostgresMedium, error) {
	if table == "" {
		return nil, errors.New("storage table name must not be empty")
	}
	m := &PostgresMedium{pool: pool, table: pgx.Identifier{table}.Sanitize()}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, m.table)
	if _, err := pool.Exec(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to create storage table %s: %w", m.table, err)
	}
	return m, nil
}

func (m *PostgresMedium) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := fmt.Sprintf("SELECT value FROM %s WHERE key = $1", m.table)
	err := m.pool.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (m *PostgresMedium) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, m.table)
	if _, err := m.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (m *PostgresMedium) Remove(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = $1", m.table)
	if _, err := m.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}
