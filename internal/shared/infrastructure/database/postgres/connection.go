// Package postgres registers the pgx-backed journal driver.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/database"
)

func init() {
	database.Register(database.DriverPostgres, func(ctx context.Context, url string, cfg database.Config) (database.Connection, error) {
		return Open(ctx, url, cfg.MaxConns)
	})
}

// querier is the subset of pgxpool.Pool and pgx.Tx the journal uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type executor struct {
	q querier
}

func (e executor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := e.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (e executor) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := e.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgxRows{rows}, nil
}

func (e executor) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return e.q.QueryRow(ctx, query, args...)
}

// Connection is a pooled PostgreSQL journal.
type Connection struct {
	executor
	pool *pgxpool.Pool
}

// Open creates a pool for url. maxConns of zero keeps the pgx default.
func Open(ctx context.Context, url string, maxConns int) (*Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse journal database URL: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal pool: %w", err)
	}
	return &Connection{executor: executor{pool}, pool: pool}, nil
}

func (c *Connection) Driver() database.Driver { return database.DriverPostgres }

func (c *Connection) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *Connection) Close() error {
	c.pool.Close()
	return nil
}

// Begin starts a transaction.
func (c *Connection) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{executor: executor{tx}, tx: tx}, nil
}

type pgTx struct {
	executor
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// pgxRows adapts pgx.Rows, whose Close returns nothing.
type pgxRows struct {
	pgx.Rows
}

func (r pgxRows) Close() error {
	r.Rows.Close()
	return nil
}
