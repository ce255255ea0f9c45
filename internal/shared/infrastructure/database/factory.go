package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Config selects and sizes the journal database.
type Config struct {
	// URL is a postgres:// URL, a sqlite:// or file: URL, or a bare file
	// path. Empty means the default local SQLite file.
	URL string

	// MaxConns caps the PostgreSQL pool. Zero keeps the pgx default.
	MaxConns int
}

// Opener opens a connection. target is what ParseURL returned.
type Opener func(ctx context.Context, target string, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

// Register makes a driver available to Open. Driver packages call it from init.
func Register(d Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[d] = open
}

// Open connects to the database named by cfg.URL. The driver package must
// be imported for its registration side effect.
func Open(ctx context.Context, cfg Config) (Connection, error) {
	driver, target := ParseURL(cfg.URL)

	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s driver not registered", driver)
	}
	return open(ctx, target, cfg)
}

// DefaultSQLitePath is where the journal lives when no URL is configured.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".rendezvous", "journal.db")
}
