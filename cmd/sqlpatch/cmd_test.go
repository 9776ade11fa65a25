package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// setup writes a two-version config into a temp dir and points viper at it.
func setup(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, dir, "001_users.up.sql", "CREATE TABLE users (id INTEGER PRIMARY KEY)")
	writeFile(t, dir, "001_users.down.sql", "DROP TABLE users")
	cfg := `
store:
  type: sqlite
  sqlite:
    path: app.db
logging:
  level: error
module:
  id: app
  versions:
    - id: "1"
      patches:
        - up_file: 001_users.up.sql
          down_file: 001_users.down.sql
    - id: "2"
      patches:
        - up: "CREATE TABLE posts (id INTEGER PRIMARY KEY)"
          down: "DROP TABLE posts"
        - up: "INSERT INTO posts (id) VALUES (1)"
          down: "DELETE FROM posts WHERE id = 1"
          tag: seed
`
	resetViper(t, writeFile(t, dir, "sqlpatch.yaml", cfg))
	return dir
}

func resetViper(t *testing.T, configPath string) {
	t.Helper()
	v := viper.GetViper()
	v.Set("config", configPath)
	v.Set("to", "")
	v.Set("tags", []string{})
	v.Set("metrics_textfile", "")
	t.Cleanup(func() {
		v.Set("config", "")
		v.Set("to", "")
		v.Set("tags", []string{})
		v.Set("metrics_textfile", "")
	})
}

func run(t *testing.T, cmd *cobra.Command) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	defer cmd.SetOut(nil)
	err := cmd.RunE(cmd, nil)
	return out.String(), err
}

func openDB(t *testing.T, dir string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func count(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query).Scan(&n))
	return n
}

func TestInitCmd(t *testing.T) {
	dir := setup(t)
	out, err := run(t, initCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "initialized version table for module app")

	db := openDB(t, dir)
	assert.Equal(t, 1, count(t, db, "SELECT count(*) FROM sqlite_master WHERE name = 'versions'"))
}

func TestUpDownStatus(t *testing.T) {
	dir := setup(t)

	out, err := run(t, upCmd)
	require.NoError(t, err)
	assert.Equal(t, "module app at version 2\n", out)

	db := openDB(t, dir)
	assert.Equal(t, 0, count(t, db, "SELECT count(*) FROM posts"), "seed patch needs its tag")

	out, err = run(t, statusCmd)
	require.NoError(t, err)
	assert.Equal(t, "module: app\ncurrent: 2\napplied: [1 2]\npending: []\nversions:\n[x] 1\n[x] 2 <- current\n", out)

	out, err = run(t, downCmd)
	require.NoError(t, err)
	assert.Equal(t, "module app at version 1\n", out)
	assert.Equal(t, 0, count(t, db, "SELECT count(*) FROM sqlite_master WHERE name = 'posts'"))

	out, err = run(t, downCmd)
	require.NoError(t, err)
	assert.Equal(t, "module app at version (none)\n", out)
	assert.Equal(t, 0, count(t, db, "SELECT count(*) FROM sqlite_master WHERE name = 'users'"))
}

func TestUpCmd_ToAndTags(t *testing.T) {
	dir := setup(t)
	v := viper.GetViper()

	v.Set("to", "1")
	out, err := run(t, upCmd)
	require.NoError(t, err)
	assert.Equal(t, "module app at version 1\n", out)

	v.Set("to", "")
	v.Set("tags", []string{"seed"})
	_, err = run(t, upCmd)
	require.NoError(t, err)

	db := openDB(t, dir)
	assert.Equal(t, 1, count(t, db, "SELECT count(*) FROM posts"))
}

func TestUpCmd_UnknownTarget(t *testing.T) {
	setup(t)
	viper.GetViper().Set("to", "9")
	_, err := run(t, upCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requested version id not found")
}

func TestUpCmd_MetricsTextfile(t *testing.T) {
	dir := setup(t)
	textfile := filepath.Join(dir, "sqlpatch.prom")
	viper.GetViper().Set("metrics_textfile", textfile)

	_, err := run(t, upCmd)
	require.NoError(t, err)

	b, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(b), `sqlpatch_versions_applied_total{module="app"} 2`)
	assert.Contains(t, string(b), `sqlpatch_current_version_position{module="app"} 2`)
}

func TestCommands_ConfigErrors(t *testing.T) {
	dir := t.TempDir()

	resetViper(t, "")
	_, err := run(t, statusCmd)
	assert.ErrorContains(t, err, "no config file given")

	resetViper(t, filepath.Join(dir, "missing.yaml"))
	_, err = run(t, upCmd)
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "store:\n  type: oracle\nmodule:\n  id: app\n")
	resetViper(t, bad)
	_, err = run(t, upCmd)
	assert.ErrorContains(t, err, "unsupported store driver")

	iso := writeFile(t, dir, "iso.yaml", "store:\n  isolation: snapshot\nmodule:\n  id: app\n")
	resetViper(t, iso)
	_, err = run(t, downCmd)
	assert.ErrorContains(t, err, "invalid isolation level")
}

func TestStatusCmd_UndeclaredMarker(t *testing.T) {
	dir := setup(t)
	_, err := run(t, upCmd)
	require.NoError(t, err)

	db := openDB(t, dir)
	_, err = db.Exec("UPDATE versions SET version_id = 'gone' WHERE module_id = 'app'")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = run(t, statusCmd)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "current version id not found"), err.Error())
}

type recordingExit struct {
	code int
	msgs []string
}

func (r *recordingExit) Exit(code int) { r.code = code }

func (r *recordingExit) LogFatalError(err error, msg string, _ ...any) {
	r.msgs = append(r.msgs, fmt.Sprintf("%s: %v", msg, err))
	r.Exit(1)
}

func TestExitHandlerIsReplaceable(t *testing.T) {
	prev := exitHandler
	defer func() { exitHandler = prev }()

	rec := &recordingExit{}
	exitHandler = rec
	exitHandler.LogFatalError(fmt.Errorf("boom"), "command execution failed")
	assert.Equal(t, 1, rec.code)
	assert.Equal(t, []string{"command execution failed: boom"}, rec.msgs)
}
