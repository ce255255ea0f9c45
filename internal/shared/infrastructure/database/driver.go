package database

import (
	"fmt"
	"strings"
)

// Driver names a journal backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// ParseURL picks the driver for a journal URL and returns what that driver
// should open: the URL itself for PostgreSQL, a file path for SQLite.
// An empty URL selects the default local SQLite file.
func ParseURL(url string) (Driver, string) {
	switch {
	case url == "":
		return DriverSQLite, DefaultSQLitePath()
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url
	case strings.HasPrefix(url, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(url, "sqlite://")
	case strings.HasPrefix(url, "file:"):
		return DriverSQLite, strings.TrimPrefix(url, "file:")
	}
	return DriverSQLite, url
}

// Rebind rewrites ? placeholders into the driver's dialect.
func Rebind(d Driver, query string) string {
	if d != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r != '?' {
			sb.WriteRune(r)
			continue
		}
		n++
		fmt.Fprintf(&sb, "$%d", n)
	}
	return sb.String()
}
