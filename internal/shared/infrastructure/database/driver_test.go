package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url        string
		wantDriver Driver
		wantTarget string
	}{
		{"postgres://u:p@localhost:5432/journal", DriverPostgres, "postgres://u:p@localhost:5432/journal"},
		{"postgresql://localhost/journal", DriverPostgres, "postgresql://localhost/journal"},
		{"sqlite:///var/lib/rendezvous/journal.db", DriverSQLite, "/var/lib/rendezvous/journal.db"},
		{"file:journal.db", DriverSQLite, "journal.db"},
		{"./journal.sqlite3", DriverSQLite, "./journal.sqlite3"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, target := ParseURL(tt.url)

			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantTarget, target)
		})
	}
}

func TestParseURL_EmptyUsesDefaultFile(t *testing.T) {
	driver, target := ParseURL("")

	assert.Equal(t, DriverSQLite, driver)
	assert.Equal(t, DefaultSQLitePath(), target)
}

func TestRebind(t *testing.T) {
	query := `DELETE FROM delivery_journal WHERE negotiation_id = ? AND attempted_at < ?`

	assert.Equal(t, query, Rebind(DriverSQLite, query))
	assert.Equal(t,
		`DELETE FROM delivery_journal WHERE negotiation_id = $1 AND attempted_at < $2`,
		Rebind(DriverPostgres, query))
}
