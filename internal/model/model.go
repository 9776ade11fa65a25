// Package model holds the immutable description of what to migrate: a Module
// made of ordered Versions, each made of ordered Patches.
package model

import (
	"fmt"
	"strings"

	"github.com/loykin/sqlpatch/internal/util"
)

var (
	_ Patch = (*SQLPatch)(nil)
	_ Patch = (*UpSQLPatch)(nil)
)

// Version is an ordered list of patches applied and committed as one step.
type Version struct {
	id      string
	patches []Patch
}

// NewVersion creates a version. Patches run in the given order.
func NewVersion(id string, patches ...Patch) (Version, error) {
	if util.IsBlank(id) {
		return Version{}, ErrBlankVersionID
	}
	for i, p := range patches {
		if p == nil {
			return Version{}, fmt.Errorf("version %s patch %d: %w", id, i, ErrNilPatch)
		}
	}
	return Version{id: id, patches: append([]Patch(nil), patches...)}, nil
}

// MustVersion is NewVersion that panics on error.
func MustVersion(id string, patches ...Patch) Version {
	v, err := NewVersion(id, patches...)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) ID() string { return v.id }

// Patches returns a copy of the patch list.
func (v Version) Patches() []Patch {
	return append([]Patch(nil), v.patches...)
}

// Equal compares versions by id.
func (v Version) Equal(o Version) bool {
	return v.id == o.id
}

func (v Version) String() string {
	parts := make([]string, len(v.patches))
	for i, p := range v.patches {
		parts[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("Version(id=%s, patches=[%s])", v.id, strings.Join(parts, ","))
}

// Module is the ordered, declared list of versions for one logical schema.
// Declaration order is the apply order.
type Module struct {
	id       string
	versions []Version
}

// NewModule creates a module. Version ids must be unique and non-blank.
func NewModule(id string, versions ...Version) (Module, error) {
	if util.IsBlank(id) {
		return Module{}, ErrBlankModuleID
	}
	seen := make(map[string]struct{}, len(versions))
	for _, v := range versions {
		if util.IsBlank(v.id) {
			return Module{}, fmt.Errorf("module %s: %w", id, ErrBlankVersionID)
		}
		if _, dup := seen[v.id]; dup {
			return Module{}, fmt.Errorf("module %s: %w: %s", id, ErrDuplicateVersion, v.id)
		}
		seen[v.id] = struct{}{}
	}
	return Module{id: id, versions: append([]Version(nil), versions...)}, nil
}

// MustModule is NewModule that panics on error.
func MustModule(id string, versions ...Version) Module {
	m, err := NewModule(id, versions...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Module) ID() string { return m.id }

// Versions returns a copy of the version list.
func (m Module) Versions() []Version {
	return append([]Version(nil), m.versions...)
}

func (m Module) Len() int { return len(m.versions) }

// VersionIDs lists version ids in declaration order.
func (m Module) VersionIDs() []string {
	ids := make([]string, len(m.versions))
	for i, v := range m.versions {
		ids[i] = v.id
	}
	return ids
}

// IndexOf returns the position of the first version with id, or -1.
func (m Module) IndexOf(id string) int {
	for i, v := range m.versions {
		if v.id == id {
			return i
		}
	}
	return -1
}

// LastIndexOf returns the position of the last version with id, or -1.
func (m Module) LastIndexOf(id string) int {
	for i := len(m.versions) - 1; i >= 0; i-- {
		if m.versions[i].id == id {
			return i
		}
	}
	return -1
}

// Has reports whether id is declared.
func (m Module) Has(id string) bool {
	return m.IndexOf(id) >= 0
}

// At returns the version at index i.
func (m Module) At(i int) Version {
	return m.versions[i]
}

// Last returns the final declared version.
func (m Module) Last() (Version, bool) {
	if len(m.versions) == 0 {
		return Version{}, false
	}
	return m.versions[len(m.versions)-1], true
}

// Equal compares modules by id.
func (m Module) Equal(o Module) bool {
	return m.id == o.id
}

func (m Module) String() string {
	parts := make([]string, len(m.versions))
	for i, v := range m.versions {
		parts[i] = v.String()
	}
	return fmt.Sprintf("Module(id=%s, versions=[%s])", m.id, strings.Join(parts, ","))
}
