package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/loykin/sqlpatch/internal/constants"

	_ "modernc.org/sqlite"
)

// Dialect implements SQL dialect for SQLite
type Dialect struct{}

// NewDialect creates a new SQLite dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name returns the store type used in configs and logs
func (s *Dialect) Name() string {
	return constants.DriverSqlite
}

// DriverName returns the database/sql driver name registered by modernc.org/sqlite
func (s *Dialect) DriverName() string {
	return "sqlite"
}

// Rebind is a no-op; SQLite understands ? placeholders natively
func (s *Dialect) Rebind(query string) string {
	return query
}

// TableExists returns a query that yields one row when the table exists.
// SQLite table names are case-insensitive, and so is the lookup.
func (s *Dialect) TableExists(name string) (string, []any) {
	return "SELECT 1 FROM sqlite_master WHERE type = 'table' AND lower(name) = lower(?)", []any{name}
}

// Connect establishes a connection to SQLite with connection pooling
func (s *Dialect) Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open(s.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	db.SetMaxOpenConns(constants.DefaultSQLiteMaxConnections)
	db.SetMaxIdleConns(constants.DefaultSQLiteMaxIdleConns)
	db.SetConnMaxLifetime(constants.DefaultSQLiteLifetime)
	db.SetConnMaxIdleTime(constants.DefaultSQLiteIdleTime)

	return db, nil
}
