// Package version persists the current version marker of a module.
package version

import (
	"context"
	"fmt"

	"github.com/loykin/sqlpatch/internal/constants"
	"github.com/loykin/sqlpatch/internal/session"
	"github.com/loykin/sqlpatch/internal/util"
)

// Manager reads and writes the marker through the caller's session. It never
// commits; the caller owns the transaction.
type Manager interface {
	// Initialize creates the marker storage if it is missing.
	Initialize(ctx context.Context, s *session.Session) error
	// CurrentVersionID returns the marker, or "" when nothing is recorded.
	CurrentVersionID(ctx context.Context, s *session.Session) (string, error)
	SetCurrentVersionID(ctx context.Context, s *session.Session, versionID string) error
}

// SQLManager keeps one row per module id in a table.
type SQLManager struct {
	moduleID string
	table    string
}

var _ Manager = (*SQLManager)(nil)

// NewSQLManager binds a manager to moduleID. A blank table means "versions".
func NewSQLManager(moduleID, table string) (*SQLManager, error) {
	table = util.TrimWithDefault(table, constants.DefaultVersionTable)
	if !util.IsIdentifier(table) {
		return nil, fmt.Errorf("invalid version table name %q", table)
	}
	return &SQLManager{moduleID: moduleID, table: table}, nil
}

func (m *SQLManager) ModuleID() string { return m.moduleID }
func (m *SQLManager) Table() string    { return m.table }

func (m *SQLManager) Initialize(ctx context.Context, s *session.Session) error {
	exists, err := s.TableExists(ctx, m.table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	// #nosec G201 -- table name validated by util.IsIdentifier
	q := fmt.Sprintf("CREATE TABLE %s (module_id VARCHAR(%d) PRIMARY KEY NOT NULL, version_id VARCHAR(%d) NOT NULL)",
		m.table, constants.VersionColumnWidth, constants.VersionColumnWidth)
	_, err = s.Exec(ctx, q)
	return err
}

func (m *SQLManager) CurrentVersionID(ctx context.Context, s *session.Session) (string, error) {
	// #nosec G201 -- table name validated by util.IsIdentifier
	q := fmt.Sprintf("SELECT version_id FROM %s WHERE module_id = ?", m.table)
	var id string
	found, err := s.QueryRow(ctx, q, []any{m.moduleID}, func(sc session.Scanner) error {
		return sc.Scan(&id)
	})
	if err != nil || !found {
		return "", err
	}
	return id, nil
}

func (m *SQLManager) SetCurrentVersionID(ctx context.Context, s *session.Session, versionID string) error {
	// #nosec G201 -- table name validated by util.IsIdentifier
	upd := fmt.Sprintf("UPDATE %s SET version_id = ? WHERE module_id = ?", m.table)
	n, err := s.Exec(ctx, upd, versionID, m.moduleID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// #nosec G201 -- table name validated by util.IsIdentifier
	ins := fmt.Sprintf("INSERT INTO %s (module_id, version_id) VALUES (?, ?)", m.table)
	_, err = s.Exec(ctx, ins, m.moduleID, versionID)
	return err
}
