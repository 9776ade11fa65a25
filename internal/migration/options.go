package migration

import (
	"database/sql"

	"github.com/loykin/sqlpatch/internal/common"
	"github.com/loykin/sqlpatch/internal/metrics"
	"github.com/loykin/sqlpatch/internal/version"
)

// Option configures a Migrator.
type Option func(*Migrator)

// WithIsolation runs every operation at level. sql.LevelDefault keeps the driver default.
func WithIsolation(level sql.IsolationLevel) Option {
	return func(m *Migrator) { m.isolation = level }
}

// WithVersionManager replaces the default SQL marker table.
func WithVersionManager(vm version.Manager) Option {
	return func(m *Migrator) { m.versions = vm }
}

// WithTable names the marker table used by the default version manager.
func WithTable(table string) Option {
	return func(m *Migrator) { m.table = table }
}

// WithLogger replaces the global logger. nil is ignored.
func WithLogger(l *common.Logger) Option {
	return func(m *Migrator) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records applied patches and versions on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Migrator) { m.metrics = c }
}
