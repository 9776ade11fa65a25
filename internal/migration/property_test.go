package migration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// After any sequence of migrate and rollback calls the marker is the id of
// the last version whose tables exist, and every earlier table exists too.
func TestProperty_MarkerMatchesAppliedPrefix(t *testing.T) {
	dir := t.TempDir()
	run := 0

	rapid.Check(t, func(rt *rapid.T) {
		run++
		n := rapid.IntRange(1, 5).Draw(rt, "versions")
		module := linearModule(n)
		st := openSqlite(rt, filepath.Join(dir, fmt.Sprintf("prop-%d.db", run)))
		defer func() { _ = st.Close() }()

		m, err := New(module, st.Connector())
		require.NoError(rt, err)
		ctx := context.Background()
		require.NoError(rt, m.Initialize(ctx))

		applied := 0
		steps := rapid.SliceOfN(rapid.IntRange(-1, n), 1, 12).Draw(rt, "steps")
		for _, step := range steps {
			switch {
			case step < 0:
				require.NoError(rt, m.Rollback(ctx))
				if applied > 0 {
					applied--
				}
			case step == 0:
				require.NoError(rt, m.Migrate(ctx))
				applied = n
			default:
				require.NoError(rt, m.MigrateTo(ctx, fmt.Sprintf("v%d", step)))
				if step > applied {
					applied = step
				}
			}

			want := ""
			if applied > 0 {
				want = fmt.Sprintf("v%d", applied)
			}
			require.Equal(rt, want, marker(rt, st.DB, "app"))
			for i := 1; i <= n; i++ {
				require.Equal(rt, i <= applied, tableExists(rt, st.DB, fmt.Sprintf("t%d", i)), "table t%d after %v", i, steps)
			}
		}
	})
}

// Migrating twice to the same target leaves the store exactly as once.
func TestProperty_MigrateToIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	run := 0

	rapid.Check(t, func(rt *rapid.T) {
		run++
		n := rapid.IntRange(1, 5).Draw(rt, "versions")
		target := rapid.IntRange(1, n).Draw(rt, "target")
		st := openSqlite(rt, filepath.Join(dir, fmt.Sprintf("idem-%d.db", run)))
		defer func() { _ = st.Close() }()

		m, err := New(linearModule(n), st.Connector())
		require.NoError(rt, err)
		ctx := context.Background()
		require.NoError(rt, m.Initialize(ctx))

		id := fmt.Sprintf("v%d", target)
		require.NoError(rt, m.MigrateTo(ctx, id))
		first, err := m.Status(ctx)
		require.NoError(rt, err)
		require.NoError(rt, m.MigrateTo(ctx, id))
		second, err := m.Status(ctx)
		require.NoError(rt, err)

		require.Equal(rt, first, second)
		require.Equal(rt, id, second.Current)
	})
}
