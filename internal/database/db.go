package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// PoolOptions bounds the shared connection pool.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

var (
	pool   *pgxpool.Pool
	poolMu sync.RWMutex
)

// Connect creates the shared connection pool and verifies it with a ping.
// Calling Connect while a pool is already open is an error; Close first.
func Connect(ctx context.Context, connString string, opts PoolOptions) error {
	poolMu.Lock()
	defer poolMu.Unlock()

	if pool != nil {
		return errors.New("database pool already initialized")
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return fmt.Errorf("error parsing database config: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		config.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		config.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	config.HealthCheckPeriod = 1 * time.Minute

	newPool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("error creating connection pool: %w", err)
	}

	if err := newPool.Ping(ctx); err != nil {
		newPool.Close()
		return fmt.Errorf("error connecting to database: %w", err)
	}

	pool = newPool
	return nil
}

// Close closes the database connection pool
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

// Pool returns the connection pool
func Pool() *pgxpool.Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return pool
}

// Status pings the database through the shared pool
func Status(ctx context.Context) error {
	p := Pool()
	if p == nil {
		return errors.New("database not initialized")
	}
	return p.Ping(ctx)
}

// Stats returns connection pool statistics, nil when not connected
func Stats() *pgxpool.Stat {
	p := Pool()
	if p == nil {
		return nil
	}
	return p.Stat()
}
