package db

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrInvalidConnector is returned for connection strings no driver accepts.
var ErrInvalidConnector = errors.New("invalid database connector")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Connector is a parsed DB_CONNECTOR value.
type Connector struct {
	Driver string
	DSN    string
}

// ParseConnector accepts the connection strings the bot has always used:
// SQLAlchemy style urls (sqlite:///rel.db, sqlite:////abs.db,
// postgresql+psycopg2://...), plain postgres urls, file: DSNs and bare
// sqlite paths.
func ParseConnector(raw string) (Connector, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Connector{}, fmt.Errorf("%w: empty", ErrInvalidConnector)
	}

	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		// file: DSNs and plain paths go to sqlite untouched
		return Connector{Driver: DriverSQLite, DSN: s}, nil
	}

	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")
	switch base {
	case "sqlite", "sqlite3":
		path := rest
		if strings.HasPrefix(path, "/") {
			path = path[1:]
		}
		if path == "" {
			return Connector{}, fmt.Errorf("%w: sqlite url %q has no path", ErrInvalidConnector, raw)
		}
		return Connector{Driver: DriverSQLite, DSN: path}, nil
	case "postgres", "postgresql":
		if rest == "" {
			return Connector{}, fmt.Errorf("%w: postgres url %q has no host", ErrInvalidConnector, raw)
		}
		return Connector{Driver: DriverPostgres, DSN: "postgres://" + rest}, nil
	default:
		return Connector{}, fmt.Errorf("%w: unsupported driver %q", ErrInvalidConnector, scheme)
	}
}

// Dialector returns the gorm dialector for the connector.
func (c Connector) Dialector() gorm.Dialector {
	if c.Driver == DriverPostgres {
		return postgres.Open(c.DSN)
	}
	return sqlite.Open(c.DSN)
}

// filePath returns the sqlite file behind the DSN, or "" for in-memory and
// URI style DSNs.
func (c Connector) filePath() string {
	if c.Driver != DriverSQLite || strings.HasPrefix(c.DSN, "file:") || strings.HasPrefix(c.DSN, ":memory:") {
		return ""
	}
	path, _, _ := strings.Cut(c.DSN, "?")
	return path
}
