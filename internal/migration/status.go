package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/loykin/sqlpatch/internal/session"
	"github.com/loykin/sqlpatch/internal/util"
)

// VersionStatus is one declared version and whether the marker has passed it.
type VersionStatus struct {
	ID      string
	Applied bool
	Current bool
}

// Status is a snapshot of a module against its persisted marker.
type Status struct {
	ModuleID string
	Current  string
	Versions []VersionStatus
}

// Applied lists the ids of applied versions in declaration order.
func (st Status) Applied() []string {
	out := make([]string, 0, len(st.Versions))
	for _, v := range st.Versions {
		if v.Applied {
			out = append(out, v.ID)
		}
	}
	return out
}

// Pending lists the ids of versions not applied yet.
func (st Status) Pending() []string {
	out := make([]string, 0, len(st.Versions))
	for _, v := range st.Versions {
		if !v.Applied {
			out = append(out, v.ID)
		}
	}
	return out
}

// FormatHuman returns a multiline summary for CLI output. versions=true adds
// one line per declared version.
func (st Status) FormatHuman(versions bool) string {
	current := st.Current
	if current == "" {
		current = "(none)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "module: %s\ncurrent: %s\napplied: %v\npending: %v\n", st.ModuleID, current, st.Applied(), st.Pending())
	if !versions {
		return b.String()
	}
	b.WriteString("versions:\n")
	for _, v := range st.Versions {
		mark := " "
		if v.Applied {
			mark = "x"
		}
		line := fmt.Sprintf("[%s] %s", mark, v.ID)
		if v.Current {
			line += " <- current"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Status reads the marker and reports every declared version as applied or
// pending. An undeclared marker is an ErrIllegalVersion.
func (m *Migrator) Status(ctx context.Context) (Status, error) {
	var current string
	err := m.run(ctx, OpStatus, func(s *session.Session) error {
		var err error
		current, err = m.current(ctx, s)
		return err
	})
	if err != nil {
		return Status{}, err
	}
	index := -1
	if !util.IsBlank(current) {
		index = m.module.LastIndexOf(current)
		if index < 0 {
			return Status{}, currentNotFound(OpStatus, current)
		}
	}
	m.metrics.SetPosition(m.module.ID(), index)

	st := Status{ModuleID: m.module.ID(), Current: current}
	for i, id := range m.module.VersionIDs() {
		st.Versions = append(st.Versions, VersionStatus{
			ID:      id,
			Applied: i <= index,
			Current: i == index,
		})
	}
	return st, nil
}
