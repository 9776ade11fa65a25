package postgresql

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/loykin/sqlpatch/internal/constants"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect implements SQL dialect for PostgreSQL
type Dialect struct{}

// NewDialect creates a new PostgreSQL dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// Name returns the store type used in configs and logs
func (p *Dialect) Name() string {
	return constants.DriverPostgresql
}

// DriverName returns the database/sql driver name registered by pgx stdlib
func (p *Dialect) DriverName() string {
	return "pgx"
}

// GetPlaceholder returns PostgreSQL-style placeholders ($1, $2, etc.)
func (p *Dialect) GetPlaceholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// Rebind rewrites ? placeholders into $n. Question marks inside single-quoted
// literals are left alone.
func (p *Dialect) Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteString(p.GetPlaceholder(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TableExists returns a query that yields one row when the table exists in
// the current schema, or in the named schema for "schema.table".
func (p *Dialect) TableExists(name string) (string, []any) {
	if schema, table, ok := strings.Cut(name, "."); ok {
		return "SELECT 1 FROM information_schema.tables WHERE lower(table_schema) = lower($1) AND lower(table_name) = lower($2)",
			[]any{schema, table}
	}
	return "SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND lower(table_name) = lower($1)",
		[]any{name}
}

// Connect establishes a connection to PostgreSQL with connection pooling
func (p *Dialect) Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open(p.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(constants.DefaultPostgresMaxConnections)
	db.SetMaxIdleConns(constants.DefaultPostgresMaxIdleConns)
	db.SetConnMaxLifetime(constants.DefaultMaxConnLifetime)
	db.SetConnMaxIdleTime(constants.DefaultMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}
	return db, nil
}
