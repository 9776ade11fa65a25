package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewDialect(t *testing.T) {
	dialect := NewDialect()
	if dialect == nil {
		t.Fatal("NewDialect() returned nil")
	}
}

func TestDialect_Names(t *testing.T) {
	dialect := NewDialect()
	if got := dialect.Name(); got != "sqlite" {
		t.Errorf("Name() = %v, want sqlite", got)
	}
	if got := dialect.DriverName(); got != "sqlite" {
		t.Errorf("DriverName() = %v, want sqlite", got)
	}
}

func TestDialect_Rebind(t *testing.T) {
	dialect := NewDialect()
	q := "UPDATE versions SET version_id = ? WHERE module_id = ?"
	if got := dialect.Rebind(q); got != q {
		t.Errorf("Rebind() = %v, want %v", got, q)
	}
}

func TestDialect_Connect(t *testing.T) {
	dialect := NewDialect()

	// A directory that does not exist cannot hold the database file
	_, err := dialect.Connect(filepath.Join(t.TempDir(), "missing", "x.db"))
	if err == nil {
		t.Error("Connect() should fail for an unreachable database file")
	}
}

func TestDialect_TableExists(t *testing.T) {
	dialect := NewDialect()
	cfg := &Config{Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := dialect.Connect(cfg.ConnectionString())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec("CREATE TABLE Versions (module_id TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tests := []struct {
		name  string
		table string
		want  bool
	}{
		{name: "exact case", table: "Versions", want: true},
		{name: "lower case", table: "versions", want: true},
		{name: "upper case", table: "VERSIONS", want: true},
		{name: "missing", table: "other", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := dialect.TableExists(tt.table)
			var one int
			err := db.QueryRowContext(context.Background(), q, args...).Scan(&one)
			got := err == nil
			if got != tt.want {
				t.Errorf("TableExists(%q) = %v (err %v), want %v", tt.table, got, err, tt.want)
			}
		})
	}
}
