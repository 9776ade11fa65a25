package constants

import "time"

// Store drivers
const (
	DriverSqlite     = "sqlite"
	DriverPostgresql = "postgresql"
)

// Database Constants
const (
	// PostgreSQL defaults
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"

	// Connection pool settings
	DefaultPostgresMaxConnections = 25
	DefaultPostgresMaxIdleConns   = 5
	DefaultSQLiteMaxConnections   = 1 // SQLite allows only one writer
	DefaultSQLiteMaxIdleConns     = 1

	// SQLite connection parameters
	DefaultSQLiteBusyTimeoutMS = 5000
	DefaultSQLitePath          = "sqlpatch.db"

	// DefaultVersionTable holds one marker row per module.
	DefaultVersionTable = "versions"

	// Width of the module_id and version_id columns.
	VersionColumnWidth = 100
)

// Time and Duration Constants
const (
	// Connection pool lifetimes
	DefaultMaxConnLifetime = 5 * time.Minute
	DefaultMaxIdleTime     = 1 * time.Minute
	DefaultSQLiteLifetime  = 10 * time.Minute
	DefaultSQLiteIdleTime  = 5 * time.Minute
)

// Environment
const (
	EnvPrefix         = "SQLPATCH"
	DefaultConfigFile = "sqlpatch.yaml"
)
