package database

import (
	"context"
	"database/sql"
)

// Row is satisfied by both pgx.Row and *sql.Row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result cursor.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Executor runs statements against a connection or an open transaction.
// Exec reports the number of affected rows.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

// Tx is an open transaction.
type Tx interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is an open journal database.
type Connection interface {
	Executor
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close() error
	Driver() Driver
}

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLExecutor adapts a *sql.DB or *sql.Tx to Executor.
type SQLExecutor struct {
	q sqlQuerier
}

// NewSQLExecutor wraps a *sql.DB or *sql.Tx.
func NewSQLExecutor(q sqlQuerier) SQLExecutor {
	return SQLExecutor{q: q}
}

func (e SQLExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := e.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (e SQLExecutor) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (e SQLExecutor) QueryRow(ctx context.Context, query string, args ...any) Row {
	return e.q.QueryRowContext(ctx, query, args...)
}
