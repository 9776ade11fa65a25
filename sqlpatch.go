// Package sqlpatch applies versioned SQL patches to a database and records the
// current version per module, one committed version at a time.
package sqlpatch

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/loykin/sqlpatch/internal/common"
	"github.com/loykin/sqlpatch/internal/metrics"
	"github.com/loykin/sqlpatch/internal/migration"
	"github.com/loykin/sqlpatch/internal/model"
	"github.com/loykin/sqlpatch/internal/session"
	"github.com/loykin/sqlpatch/internal/store"
	"github.com/loykin/sqlpatch/internal/store/postgresql"
	"github.com/loykin/sqlpatch/internal/store/sqlite"
	"github.com/loykin/sqlpatch/internal/version"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export commonly used types for public API

type (
	Patch       = model.Patch
	PatchOption = model.PatchOption
	SQLPatch    = model.SQLPatch
	UpSQLPatch  = model.UpSQLPatch
	Version     = model.Version
	Module      = model.Module
	Target      = model.Target

	IrreversibleError = model.IrreversibleError
	VersionError      = migration.VersionError

	Migrator      = migration.Migrator
	Option        = migration.Option
	Status        = migration.Status
	VersionStatus = migration.VersionStatus

	Session   = session.Session
	Conn      = session.Conn
	Connector = session.Connector

	VersionManager = version.Manager
	SQLManager     = version.SQLManager

	StoreConfig    = store.Config
	Dialect        = store.Dialect
	SqliteConfig   = sqlite.Config
	PostgresConfig = postgresql.Config

	Logger   = common.Logger
	LogLevel = common.LogLevel

	MetricsCollector = metrics.Collector
)

const (
	DriverSqlite     = store.DriverSqlite
	DriverPostgresql = store.DriverPostgresql

	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

var (
	// ErrIllegalVersion marks disagreement between declared versions and the stored marker.
	ErrIllegalVersion = migration.ErrIllegalVersion
	// ErrIrreversible is returned when rolling back a patch without down SQL.
	ErrIrreversible = model.ErrIrreversible
	// ErrUnsupportedDriver is returned for unknown store types.
	ErrUnsupportedDriver = store.ErrUnsupportedDriver
)

func NewSQLPatch(up, down string, opts ...PatchOption) *SQLPatch {
	return model.NewSQLPatch(up, down, opts...)
}

func NewUpSQLPatch(up string, opts ...PatchOption) *UpSQLPatch {
	return model.NewUpSQLPatch(up, opts...)
}

// WithTag restricts a patch to runs that name tag.
func WithTag(tag string) PatchOption { return model.WithTag(tag) }

func NewVersion(id string, patches ...Patch) (Version, error) {
	return model.NewVersion(id, patches...)
}

func NewModule(id string, versions ...Version) (Module, error) {
	return model.NewModule(id, versions...)
}

// ModuleFromFS declares a module from NNN_name.up.sql / NNN_name.down.sql files in dir.
func ModuleFromFS(moduleID string, fsys fs.FS, dir string) (Module, error) {
	return migration.ModuleFromFS(moduleID, fsys, dir)
}

// New creates a migrator that checks out a connection from connect per operation.
func New(module Module, connect Connector, opts ...Option) (*Migrator, error) {
	return migration.New(module, connect, opts...)
}

// FromDB creates a migrator over an existing pool.
func FromDB(module Module, db *sql.DB, dialect Dialect, opts ...Option) (*Migrator, error) {
	return migration.FromDB(module, db, dialect, opts...)
}

// Open connects to the configured store; the migrator owns the pool.
func Open(ctx context.Context, module Module, cfg StoreConfig, opts ...Option) (*Migrator, error) {
	return migration.Open(ctx, module, cfg, opts...)
}

// DialectFor returns the dialect for "sqlite" or "postgresql".
func DialectFor(driver string) (Dialect, error) { return store.DialectFor(driver) }

func WithIsolation(level sql.IsolationLevel) Option { return migration.WithIsolation(level) }

func WithVersionManager(vm VersionManager) Option { return migration.WithVersionManager(vm) }

func WithTable(table string) Option { return migration.WithTable(table) }

func WithLogger(l *Logger) Option { return migration.WithLogger(l) }

func WithMetrics(c *MetricsCollector) Option { return migration.WithMetrics(c) }

// NewMetricsCollector registers migration metrics on reg under namespace.
func NewMetricsCollector(namespace string, reg prometheus.Registerer) *MetricsCollector {
	return metrics.NewCollector(namespace, reg)
}

func NewSQLManager(moduleID, table string) (*SQLManager, error) {
	return version.NewSQLManager(moduleID, table)
}

// Logging helpers

func NewLogger(level LogLevel) *Logger { return common.NewLogger(level) }

func NewJSONLogger(level LogLevel) *Logger { return common.NewJSONLogger(level) }

func SetDefaultLogger(l *Logger) { common.SetDefaultLogger(l) }

func GetLogger() *Logger { return common.GetLogger() }

// EnableMasking toggles masking of passwords in logged connection strings.
func EnableMasking(enabled bool) { common.EnableMasking(enabled) }
