package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersion(t *testing.T) {
	p1 := NewSQLPatch("CREATE TABLE a (id INT)", "DROP TABLE a")
	p2 := NewUpSQLPatch("INSERT INTO a VALUES (1)")

	v, err := NewVersion("1.0.0", p1, p2)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", v.ID())
	assert.Equal(t, []Patch{p1, p2}, v.Patches())

	_, err = NewVersion("  ", p1)
	assert.ErrorIs(t, err, ErrBlankVersionID)

	_, err = NewVersion("1.0.0", p1, nil)
	assert.ErrorIs(t, err, ErrNilPatch)
}

func TestVersion_PatchesIsACopy(t *testing.T) {
	patches := []Patch{NewSQLPatch("a", "b")}
	v := MustVersion("1", patches...)

	patches[0] = NewSQLPatch("x", "y")
	got := v.Patches()
	assert.Equal(t, "a", got[0].Up())

	got[0] = nil
	assert.NotNil(t, v.Patches()[0])
}

func TestVersion_EqualByID(t *testing.T) {
	a := MustVersion("1.0.0", NewSQLPatch("a", "b"))
	b := MustVersion("1.0.0")
	c := MustVersion("2.0.0", NewSQLPatch("a", "b"))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestNewModule(t *testing.T) {
	v1 := MustVersion("1.0.0")
	v2 := MustVersion("2.0.0")

	m, err := NewModule("app", v1, v2)
	require.NoError(t, err)
	assert.Equal(t, "app", m.ID())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"1.0.0", "2.0.0"}, m.VersionIDs())

	_, err = NewModule("", v1)
	assert.ErrorIs(t, err, ErrBlankModuleID)

	_, err = NewModule("app", v1, MustVersion("2.0.0"), MustVersion("1.0.0"))
	assert.ErrorIs(t, err, ErrDuplicateVersion)

	_, err = NewModule("app", Version{})
	assert.ErrorIs(t, err, ErrBlankVersionID)
}

func TestModule_DeclarationOrderIsKept(t *testing.T) {
	m := MustModule("app", MustVersion("10"), MustVersion("2"), MustVersion("1"))
	assert.Equal(t, []string{"10", "2", "1"}, m.VersionIDs())
}

func TestModule_Lookup(t *testing.T) {
	m := MustModule("app", MustVersion("a"), MustVersion("b"), MustVersion("c"))

	assert.Equal(t, 1, m.IndexOf("b"))
	assert.Equal(t, 1, m.LastIndexOf("b"))
	assert.Equal(t, -1, m.IndexOf("z"))
	assert.Equal(t, -1, m.LastIndexOf("z"))
	assert.Equal(t, -1, m.IndexOf(""))
	assert.True(t, m.Has("c"))
	assert.False(t, m.Has(""))
	assert.Equal(t, "a", m.At(0).ID())

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, "c", last.ID())

	_, ok = MustModule("empty").Last()
	assert.False(t, ok)
}

func TestModule_VersionsIsACopy(t *testing.T) {
	m := MustModule("app", MustVersion("a"))
	vs := m.Versions()
	vs[0] = MustVersion("z")
	assert.Equal(t, "a", m.Versions()[0].ID())
}

func TestModule_EqualByID(t *testing.T) {
	a := MustModule("app", MustVersion("1"))
	b := MustModule("app")
	c := MustModule("other", MustVersion("1"))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestModule_String(t *testing.T) {
	m := MustModule("app",
		MustVersion("1.0.0", NewSQLPatch("CREATE TABLE secret_stuff (id INT)", "DROP TABLE secret_stuff", WithTag("seed"))),
		MustVersion("2.0.0", NewUpSQLPatch("INSERT INTO x VALUES (1)")),
	)
	want := "Module(id=app, versions=[Version(id=1.0.0, patches=[SQLPatch(tag=seed)]),Version(id=2.0.0, patches=[UpSQLPatch(tag=)])])"
	assert.Equal(t, want, m.String())
	assert.NotContains(t, m.String(), "secret_stuff")
}

func TestMustModule_Panics(t *testing.T) {
	assert.Panics(t, func() { MustModule("app", MustVersion("1"), MustVersion("1")) })
	assert.Panics(t, func() { MustVersion("") })
}
