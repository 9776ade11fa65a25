package migration

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/loykin/sqlpatch/internal/model"
	"github.com/loykin/sqlpatch/internal/store"
	"github.com/loykin/sqlpatch/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

func openSqlite(t require.TestingT, path string) *store.Store {
	st, err := store.Open(context.Background(), store.Config{
		Driver:       store.DriverSqlite,
		DriverConfig: &sqlite.Config{Path: path},
	})
	require.NoError(t, err)
	return st
}

// newSqliteMigrator returns an initialized migrator over a fresh database file.
func newSqliteMigrator(t *testing.T, module model.Module, opts ...Option) (*Migrator, *sql.DB) {
	t.Helper()
	st := openSqlite(t, filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { _ = st.Close() })

	m, err := New(module, st.Connector(), opts...)
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background()))
	return m, st.DB
}

func tableExists(t require.TestingT, db *sql.DB, name string) bool {
	var one int
	err := db.QueryRow("SELECT 1 FROM sqlite_master WHERE type = 'table' AND lower(name) = lower(?)", name).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return true
}

// existing lists which of names exist, with "" for missing ones.
func existing(t *testing.T, db *sql.DB, names ...string) []string {
	t.Helper()
	out := make([]string, len(names))
	for i, n := range names {
		if tableExists(t, db, n) {
			out[i] = n
		}
	}
	return out
}

func marker(t require.TestingT, db *sql.DB, moduleID string) string {
	var v string
	err := db.QueryRow("SELECT version_id FROM versions WHERE module_id = ?", moduleID).Scan(&v)
	if err == sql.ErrNoRows {
		return ""
	}
	require.NoError(t, err)
	return v
}

func createPatch(table string, opts ...model.PatchOption) *model.SQLPatch {
	return model.NewSQLPatch(
		fmt.Sprintf("CREATE TABLE %s (id INTEGER PRIMARY KEY)", table),
		fmt.Sprintf("DROP TABLE %s", table),
		opts...,
	)
}

// linearModule declares n versions "v1".."vn", version i creating table ti.
func linearModule(n int) model.Module {
	versions := make([]model.Version, n)
	for i := range versions {
		versions[i] = model.MustVersion(fmt.Sprintf("v%d", i+1), createPatch(fmt.Sprintf("t%d", i+1)))
	}
	return model.MustModule("app", versions...)
}
