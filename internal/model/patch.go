package model

import (
	"context"
	"fmt"

	"github.com/loykin/sqlpatch/internal/common"
	"github.com/loykin/sqlpatch/internal/session"
	"github.com/loykin/sqlpatch/internal/util"
)

// Target identifies the module and version a patch is executed for.
type Target struct {
	ModuleID  string
	VersionID string
}

// Patch is one schema change inside a Version.
type Patch interface {
	Tag() string
	Up() string
	// Down returns the reverse SQL, or an *IrreversibleError.
	Down() (string, error)
	// Contains reports whether the patch is selected by tags. Untagged
	// patches are always selected.
	Contains(tags []string) bool
	Migrate(ctx context.Context, s *session.Session, t Target, tags []string) error
	Rollback(ctx context.Context, s *session.Session, t Target, tags []string) error
}

// PatchOption customizes a patch at construction.
type PatchOption func(*patchBase)

// WithTag restricts a patch to runs that name tag.
func WithTag(tag string) PatchOption {
	return func(b *patchBase) { b.tag = tag }
}

type patchBase struct {
	tag string
	up  string
}

func newBase(up string, opts []PatchOption) patchBase {
	b := patchBase{up: up}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	return b
}

func (b *patchBase) Tag() string { return b.tag }
func (b *patchBase) Up() string  { return b.up }

func (b *patchBase) Contains(tags []string) bool {
	if util.IsBlank(b.tag) {
		return true
	}
	return util.ContainsString(tags, b.tag)
}

func (b *patchBase) exec(ctx context.Context, s *session.Session, t Target, direction, query string) error {
	logger := common.GetLogger().WithModule(t.ModuleID).WithVersion(t.VersionID)
	if util.IsBlank(query) {
		logger.Debug("skipping empty patch", "direction", direction, "tag", b.tag)
		return nil
	}
	logger.Debug("executing patch", "direction", direction, "tag", b.tag)
	_, err := s.Exec(ctx, query)
	return err
}

// SQLPatch is a reversible patch.
type SQLPatch struct {
	patchBase
	down string
}

// NewSQLPatch creates a reversible patch from literal SQL.
func NewSQLPatch(up, down string, opts ...PatchOption) *SQLPatch {
	return &SQLPatch{patchBase: newBase(up, opts), down: down}
}

func (p *SQLPatch) Down() (string, error) {
	return p.down, nil
}

func (p *SQLPatch) Migrate(ctx context.Context, s *session.Session, t Target, tags []string) error {
	if !p.Contains(tags) {
		return nil
	}
	return p.exec(ctx, s, t, "up", p.up)
}

func (p *SQLPatch) Rollback(ctx context.Context, s *session.Session, t Target, tags []string) error {
	if !p.Contains(tags) {
		return nil
	}
	return p.exec(ctx, s, t, "down", p.down)
}

func (p *SQLPatch) String() string {
	return fmt.Sprintf("SQLPatch(tag=%s)", p.tag)
}

// UpSQLPatch is a forward-only patch; reversing it always fails.
type UpSQLPatch struct {
	patchBase
}

// NewUpSQLPatch creates an irreversible patch from literal SQL.
func NewUpSQLPatch(up string, opts ...PatchOption) *UpSQLPatch {
	return &UpSQLPatch{patchBase: newBase(up, opts)}
}

func (p *UpSQLPatch) Down() (string, error) {
	return "", &IrreversibleError{Tag: p.tag, Up: p.up}
}

func (p *UpSQLPatch) Migrate(ctx context.Context, s *session.Session, t Target, tags []string) error {
	if !p.Contains(tags) {
		return nil
	}
	return p.exec(ctx, s, t, "up", p.up)
}

// Rollback always fails, whatever tags are selected: the data an up-only
// patch may have written cannot be taken back.
func (p *UpSQLPatch) Rollback(_ context.Context, _ *session.Session, _ Target, _ []string) error {
	_, err := p.Down()
	return err
}

func (p *UpSQLPatch) String() string {
	return fmt.Sprintf("UpSQLPatch(tag=%s)", p.tag)
}

// PatchEqual compares patches by content: tag and up, plus down for
// reversible patches.
func PatchEqual(a, b Patch) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch pa := a.(type) {
	case *SQLPatch:
		pb, ok := b.(*SQLPatch)
		return ok && pa.tag == pb.tag && pa.up == pb.up && pa.down == pb.down
	case *UpSQLPatch:
		pb, ok := b.(*UpSQLPatch)
		return ok && pa.tag == pb.tag && pa.up == pb.up
	default:
		if a.Tag() != b.Tag() || a.Up() != b.Up() {
			return false
		}
		da, errA := a.Down()
		db, errB := b.Down()
		return (errA == nil) == (errB == nil) && da == db
	}
}
