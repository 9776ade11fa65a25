package postgresql

import (
	"reflect"
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
	if got := dialect.Name(); got != "postgresql" {
		t.Errorf("Name() = %v, want postgresql", got)
	}
	if got := dialect.DriverName(); got != "pgx" {
		t.Errorf("DriverName() = %v, want pgx", got)
	}
}

func TestDialect_GetPlaceholder(t *testing.T) {
	dialect := NewDialect()

	tests := []struct {
		name  string
		index int
		want  string
	}{
		{
			name:  "first placeholder",
			index: 1,
			want:  "$1",
		},
		{
			name:  "tenth placeholder",
			index: 10,
			want:  "$10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dialect.GetPlaceholder(tt.index)
			if got != tt.want {
				t.Errorf("GetPlaceholder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDialect_Rebind(t *testing.T) {
	dialect := NewDialect()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "no placeholders",
			query: "SELECT 1",
			want:  "SELECT 1",
		},
		{
			name:  "two placeholders",
			query: "UPDATE versions SET version_id = ? WHERE module_id = ?",
			want:  "UPDATE versions SET version_id = $1 WHERE module_id = $2",
		},
		{
			name:  "quoted question mark",
			query: "SELECT '?' WHERE a = ?",
			want:  "SELECT '?' WHERE a = $1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dialect.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDialect_TableExists(t *testing.T) {
	dialect := NewDialect()

	q, args := dialect.TableExists("versions")
	if want := []any{"versions"}; !reflect.DeepEqual(args, want) {
		t.Errorf("TableExists() args = %v, want %v", args, want)
	}
	if q == "" {
		t.Error("TableExists() returned an empty query")
	}

	_, args = dialect.TableExists("audit.versions")
	if want := []any{"audit", "versions"}; !reflect.DeepEqual(args, want) {
		t.Errorf("TableExists() args = %v, want %v", args, want)
	}
}

func TestDialect_Connect(t *testing.T) {
	dialect := NewDialect()

	// Test with invalid DSN - should fail
	_, err := dialect.Connect("invalid-dsn")
	if err == nil {
		t.Error("Connect() should fail with invalid DSN")
	}
}
