// Package store is the database/sql backend for migrations: dialects,
// connection checkout and the session.Conn implementation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/loykin/sqlpatch/internal/common"
	"github.com/loykin/sqlpatch/internal/constants"
	"github.com/loykin/sqlpatch/internal/retry"
	"github.com/loykin/sqlpatch/internal/session"
	"github.com/loykin/sqlpatch/internal/store/postgresql"
	"github.com/loykin/sqlpatch/internal/store/sqlite"
	"github.com/loykin/sqlpatch/internal/util"
)

// Dialect hides the SQL differences between supported databases.
type Dialect interface {
	// Name is the store type, e.g. "sqlite".
	Name() string
	// DriverName is the database/sql driver to open.
	DriverName() string
	// Rebind converts ? placeholders into the dialect's native form.
	Rebind(query string) string
	// TableExists returns a query and its args that yield a row iff the
	// table exists (case-insensitive).
	TableExists(name string) (string, []any)
	Connect(dsn string) (*sql.DB, error)
}

var (
	_ Dialect = (*sqlite.Dialect)(nil)
	_ Dialect = (*postgresql.Dialect)(nil)
)

// ErrUnsupportedDriver is returned for store types other than sqlite and postgresql.
var ErrUnsupportedDriver = errors.New("unsupported store driver")

// DialectFor maps a store type onto its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch util.TrimAndLower(driver) {
	case DriverSqlite, "":
		return sqlite.NewDialect(), nil
	case DriverPostgresql, "postgres":
		return postgresql.NewDialect(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Store is an open database together with its dialect and marker table.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
	Table   string
}

// Open connects to the configured database, retrying transient failures.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := connectionString(dialect.Name(), cfg.DriverConfig)
	if err != nil {
		return nil, err
	}
	table := util.TrimWithDefault(cfg.Table, constants.DefaultVersionTable)
	if !util.IsIdentifier(table) {
		return nil, fmt.Errorf("invalid version table name %q", table)
	}

	logger := common.GetLogger().WithStore(dialect.Name())
	logger.Debug("opening store", "dsn", dsn)

	db, err := retry.Value(ctx, cfg.Retry, func() (*sql.DB, error) {
		return dialect.Connect(dsn)
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", dialect.Name(), err)
	}
	logger.Info("store connection established", "table", table)
	return &Store{DB: db, Dialect: dialect, Table: table}, nil
}

func connectionString(name string, dc DriverConfig) (string, error) {
	var m map[string]interface{}
	if dc != nil {
		m = dc.ToMap()
	}
	switch name {
	case DriverPostgresql:
		c, err := postgresql.Load(m)
		if err != nil {
			return "", err
		}
		dsn := c.ConnectionString()
		if dsn == "" {
			return "", errors.New("postgresql store requires dsn or host")
		}
		return dsn, nil
	default:
		c, err := sqlite.Load(m)
		if err != nil {
			return "", err
		}
		return c.ConnectionString(), nil
	}
}

// Connector hands out one pooled connection per migrator operation.
func (s *Store) Connector() session.Connector {
	return Connector(s.DB, s.Dialect)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Connector adapts a *sql.DB into a session.Connector. Each call checks out a
// dedicated *sql.Conn so that a whole operation runs on the same session.
func Connector(db *sql.DB, dialect Dialect) session.Connector {
	return func(ctx context.Context) (session.Conn, error) {
		if db == nil {
			return nil, errors.New("store: nil database")
		}
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, err
		}
		return NewSQLConn(conn, dialect), nil
	}
}
