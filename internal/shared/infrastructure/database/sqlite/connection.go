// Package sqlite registers the pure-Go SQLite journal driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/database"
)

// Senders record deliveries concurrently, so writers wait instead of failing.
const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

func init() {
	database.Register(database.DriverSQLite, func(ctx context.Context, path string, _ database.Config) (database.Connection, error) {
		return Open(ctx, path)
	})
}

// Connection is a single-writer SQLite database.
type Connection struct {
	database.SQLExecutor
	db *sql.DB
}

// Open creates the parent directory if needed and opens the file at path.
func Open(ctx context.Context, path string) (*Connection, error) {
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite journal: %w", err)
	}
	return &Connection{SQLExecutor: database.NewSQLExecutor(db), db: db}, nil
}

func (c *Connection) Driver() database.Driver { return database.DriverSQLite }

func (c *Connection) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *Connection) Close() error { return c.db.Close() }

// Begin starts a transaction.
func (c *Connection) Begin(ctx context.Context) (database.Tx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{SQLExecutor: database.NewSQLExecutor(tx), tx: tx}, nil
}

type sqlTx struct {
	database.SQLExecutor
	tx *sql.Tx
}

func (t *sqlTx) Commit(context.Context) error   { return t.tx.Commit() }
func (t *sqlTx) Rollback(context.Context) error { return t.tx.Rollback() }
