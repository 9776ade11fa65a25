// Package migration applies and reverts the versions of a module against a
// store, keeping the persisted marker consistent with the declared versions.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/loykin/sqlpatch/internal/common"
	"github.com/loykin/sqlpatch/internal/metrics"
	"github.com/loykin/sqlpatch/internal/model"
	"github.com/loykin/sqlpatch/internal/session"
	"github.com/loykin/sqlpatch/internal/store"
	"github.com/loykin/sqlpatch/internal/util"
	"github.com/loykin/sqlpatch/internal/version"
)

// Migrator runs one module. Its public operations are serialized by a mutex;
// this does not coordinate with other Migrators or processes using the same store.
type Migrator struct {
	module    model.Module
	connect   session.Connector
	isolation sql.IsolationLevel
	versions  version.Manager
	table     string
	logger    *common.Logger
	metrics   *metrics.Collector
	closer    io.Closer

	mu sync.Mutex
}

// New creates a Migrator that checks out a connection from connect for every operation.
func New(module model.Module, connect session.Connector, opts ...Option) (*Migrator, error) {
	if connect == nil {
		return nil, errors.New("migration: nil connector")
	}
	m := &Migrator{
		module:  module,
		connect: connect,
		logger:  common.GetLogger().WithComponent("migrator"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.versions == nil {
		vm, err := version.NewSQLManager(module.ID(), m.table)
		if err != nil {
			return nil, err
		}
		m.versions = vm
	}
	m.logger = m.logger.WithModule(module.ID())
	return m, nil
}

// FromDB creates a Migrator over a connection pool.
func FromDB(module model.Module, db *sql.DB, dialect store.Dialect, opts ...Option) (*Migrator, error) {
	if db == nil || dialect == nil {
		return nil, errors.New("migration: nil database or dialect")
	}
	return New(module, store.Connector(db, dialect), opts...)
}

// Open connects to the store described by cfg. The Migrator owns the
// connection pool; call Close when done.
func Open(ctx context.Context, module model.Module, cfg store.Config, opts ...Option) (*Migrator, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithTable(st.Table)}, opts...)
	m, err := New(module, st.Connector(), opts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	m.closer = st
	return m, nil
}

// Close releases the connection pool opened by Open. It is a no-op otherwise.
func (m *Migrator) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// Module returns the module this Migrator runs.
func (m *Migrator) Module() model.Module {
	return m.module
}

// run is the commit wrapper shared by every public operation.
func (m *Migrator) run(ctx context.Context, op string, fn func(*session.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	err := session.Run(ctx, m.connect, session.TxOptions(m.isolation), fn)
	m.metrics.RecordOperation(m.module.ID(), op, time.Since(start), err)
	if err != nil {
		m.logger.Error("operation failed", "operation", op, "error", err)
	}
	return err
}

// Initialize creates the marker storage if it does not exist yet.
func (m *Migrator) Initialize(ctx context.Context) error {
	return m.run(ctx, OpInitialize, func(s *session.Session) error {
		if err := m.versions.Initialize(ctx, s); err != nil {
			return &VersionError{Op: OpInitialize, Reason: "could not initialize version manager", Err: err}
		}
		return nil
	})
}

// CurrentVersionID returns the persisted marker; "" means nothing is applied.
func (m *Migrator) CurrentVersionID(ctx context.Context) (string, error) {
	var current string
	err := m.run(ctx, OpCurrent, func(s *session.Session) error {
		var err error
		current, err = m.current(ctx, s)
		return err
	})
	if err != nil {
		return "", err
	}
	return current, nil
}

// Migrate applies every pending version. Patches tagged with something not
// in tags are skipped.
func (m *Migrator) Migrate(ctx context.Context, tags ...string) error {
	last, ok := m.module.Last()
	if !ok {
		return nil
	}
	return m.MigrateTo(ctx, last.ID(), tags...)
}

// MigrateTo applies pending versions up to and including versionID. Each
// version is committed on its own, so a failure keeps the versions before it.
func (m *Migrator) MigrateTo(ctx context.Context, versionID string, tags ...string) error {
	applied := 0
	err := m.run(ctx, OpMigrate, func(s *session.Session) error {
		var err error
		applied, err = m.migrateTo(ctx, s, versionID, tags)
		return err
	})
	if err == nil && applied == 0 {
		m.logger.Debug("nothing to migrate", "target", versionID)
	}
	return err
}

func (m *Migrator) migrateTo(ctx context.Context, s *session.Session, versionID string, tags []string) (int, error) {
	if m.module.Len() == 0 {
		return 0, nil
	}
	if !m.module.Has(versionID) {
		return 0, requestedNotFound(OpMigrate, versionID)
	}
	current, err := m.current(ctx, s)
	if err != nil {
		return 0, err
	}
	if !util.IsBlank(current) && !m.module.Has(current) {
		return 0, currentNotFound(OpMigrate, current)
	}
	if last, _ := m.module.Last(); last.ID() == current {
		return 0, nil
	}

	targetIndex := m.module.IndexOf(versionID)
	currentIndex := m.module.IndexOf(current)
	if targetIndex <= currentIndex {
		return 0, nil
	}
	start := 0
	if !util.IsBlank(current) {
		start = currentIndex + 1
	}

	applied := 0
	for i := start; i < m.module.Len(); i++ {
		v := m.module.At(i)
		logger := m.logger.WithVersion(v.ID())
		target := model.Target{ModuleID: m.module.ID(), VersionID: v.ID()}

		for _, p := range v.Patches() {
			if err := p.Migrate(ctx, s, target, tags); err != nil {
				logger.Error("patch failed", "patch", p, "error", err)
				return applied, err
			}
			if p.Contains(tags) {
				m.metrics.RecordPatch(m.module.ID(), "up")
			}
		}
		if err := m.setCurrent(ctx, s, v.ID()); err != nil {
			return applied, err
		}
		if err := s.Checkpoint(ctx); err != nil {
			return applied, err
		}
		applied++
		m.metrics.RecordVersionApplied(m.module.ID())
		m.metrics.SetPosition(m.module.ID(), i)
		logger.Info("version applied")

		if v.ID() == versionID {
			break
		}
	}
	return applied, nil
}

// Rollback reverts the current version only, running its patches in reverse
// order. The marker moves to the previous version, or "" from the first one.
func (m *Migrator) Rollback(ctx context.Context, tags ...string) error {
	reverted := -1
	err := m.run(ctx, OpRollback, func(s *session.Session) error {
		var err error
		reverted, err = m.rollback(ctx, s, tags)
		return err
	})
	if err != nil {
		return err
	}
	if reverted >= 0 {
		m.metrics.RecordVersionRolledBack(m.module.ID())
		m.metrics.SetPosition(m.module.ID(), reverted-1)
	}
	return nil
}

func (m *Migrator) rollback(ctx context.Context, s *session.Session, tags []string) (int, error) {
	if m.module.Len() == 0 {
		return -1, nil
	}
	current, err := m.current(ctx, s)
	if err != nil {
		return -1, err
	}
	if util.IsBlank(current) {
		return -1, nil
	}
	index := m.module.LastIndexOf(current)
	if index < 0 {
		return -1, currentNotFound(OpRollback, current)
	}

	v := m.module.At(index)
	logger := m.logger.WithVersion(v.ID())
	target := model.Target{ModuleID: m.module.ID(), VersionID: v.ID()}
	patches := v.Patches()
	for i := len(patches) - 1; i >= 0; i-- {
		p := patches[i]
		if err := p.Rollback(ctx, s, target, tags); err != nil {
			logger.Error("patch rollback failed", "patch", p, "error", err)
			return -1, err
		}
		if p.Contains(tags) {
			m.metrics.RecordPatch(m.module.ID(), "down")
		}
	}

	previous := ""
	if index > 0 {
		previous = m.module.At(index - 1).ID()
	}
	if err := m.setCurrent(ctx, s, previous); err != nil {
		return -1, err
	}
	logger.Info("version rolled back", "current", previous)
	return index, nil
}

func (m *Migrator) current(ctx context.Context, s *session.Session) (string, error) {
	id, err := m.versions.CurrentVersionID(ctx, s)
	if err != nil {
		return "", &VersionError{Op: OpCurrent, Reason: "could not retrieve current version id", Err: err}
	}
	return id, nil
}

func (m *Migrator) setCurrent(ctx context.Context, s *session.Session, id string) error {
	if err := m.versions.SetCurrentVersionID(ctx, s, id); err != nil {
		return &VersionError{Op: OpSetCurrent, VersionID: id, Reason: "could not save current version id", Err: err}
	}
	return nil
}
