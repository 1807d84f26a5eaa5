package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolSettings tunes the pool behind the postgres storage medium. Zero values
// keep the pgx defaults.
type PoolSettings struct {
	URL             string
	MaxConns        int32
	ConnectTimeout  time.Duration
	ApplicationName string
}

// ParsePoolConfig turns settings into a pgxpool configuration without
// connecting. The storage medium issues one statement per key, so a small
// pool is plenty.
func ParsePoolConfig(s PoolSettings) (*pgxpool.Config, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("database connection string is empty")
	}

	config, err := pgxpool.ParseConfig(s.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}
	if s.MaxConns > 0 {
		config.MaxConns = s.MaxConns
		if config.MinConns > config.MaxConns {
			config.MinConns = config.MaxConns
		}
	}
	if s.ConnectTimeout > 0 {
		config.ConnConfig.ConnectTimeout = s.ConnectTimeout
	}
	if s.ApplicationName != "" {
		config.ConnConfig.RuntimeParams["application_name"] = s.ApplicationName
	}
	return config, nil
}

// NewPool opens a pool and checks it can reach the server within the
// connect timeout.
func NewPool(ctx context.Context, s PoolSettings) (*pgxpool.Pool, error) {
	config, err := ParsePoolConfig(s)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx := ctx
	if s.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, s.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}
