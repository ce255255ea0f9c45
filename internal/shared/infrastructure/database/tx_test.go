package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/rendezvous/internal/shared/infrastructure/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlite.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "nested", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(ctx, `CREATE TABLE recipients (email TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	return conn
}

func count(t *testing.T, conn database.Connection) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(context.Background(), `SELECT COUNT(*) FROM recipients`).Scan(&n))
	return n
}

func TestOpen_RegisteredDriver(t *testing.T) {
	ctx := context.Background()
	conn, err := database.Open(ctx, database.Config{URL: "sqlite://" + filepath.Join(t.TempDir(), "journal.db")})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, database.DriverSQLite, conn.Driver())
	assert.NoError(t, conn.Ping(ctx))
}

func TestWithinTx_Commits(t *testing.T) {
	conn := openTestDB(t)

	err := database.WithinTx(context.Background(), conn, func(ctx context.Context) error {
		_, err := database.From(ctx, conn).Exec(ctx, `INSERT INTO recipients (email) VALUES (?)`, "a@example.com")
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count(t, conn))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	conn := openTestDB(t)
	boom := errors.New("boom")

	err := database.WithinTx(context.Background(), conn, func(ctx context.Context) error {
		if _, err := database.From(ctx, conn).Exec(ctx, `INSERT INTO recipients (email) VALUES (?)`, "a@example.com"); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, conn))
}

func TestWithinTx_JoinsOuterTransaction(t *testing.T) {
	conn := openTestDB(t)

	err := database.WithinTx(context.Background(), conn, func(ctx context.Context) error {
		inner := database.WithinTx(ctx, conn, func(ctx context.Context) error {
			_, err := database.From(ctx, conn).Exec(ctx, `INSERT INTO recipients (email) VALUES (?)`, "a@example.com")
			return err
		})
		require.NoError(t, inner)
		return errors.New("outer fails")
	})

	require.Error(t, err)
	assert.Equal(t, 0, count(t, conn))
}

func TestExec_ReportsRowsAffected(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := conn.Exec(ctx, `INSERT INTO recipients (email) VALUES (?)`, email)
		require.NoError(t, err)
	}

	removed, err := conn.Exec(ctx, `DELETE FROM recipients`)

	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	rows, err := conn.Query(ctx, `SELECT email FROM recipients`)
	require.NoError(t, err)
	defer rows.Close()
	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}
