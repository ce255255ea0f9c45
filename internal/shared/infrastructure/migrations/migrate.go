package migrations

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationFS embed.FS

// Run executes every up migration for the connection's driver inside one
// transaction. Migrations are written to be idempotent.
func Run(ctx context.Context, conn database.Connection) error {
	dir := conn.Driver().String()
	files, err := upFiles(dir)
	if err != nil {
		return err
	}

	return database.WithinTx(ctx, conn, func(ctx context.Context) error {
		exec := database.From(ctx, conn)
		for _, file := range files {
			migration, err := migrationFS.ReadFile(dir + "/" + file)
			if err != nil {
				return fmt.Errorf("failed to read migration %s: %w", file, err)
			}
			for _, stmt := range statements(string(migration)) {
				if _, err := exec.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute migration %s: %w", file, err)
				}
			}
		}
		return nil
	})
}

func upFiles(dir string) ([]string, error) {
	entries, err := migrationFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// statements splits a migration file on semicolons. Migration files contain
// no semicolons inside literals.
func statements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
