package model

import (
	"errors"
	"fmt"
)

var (
	// ErrIrreversible is matched by every IrreversibleError.
	ErrIrreversible = errors.New("irreversible patch")

	ErrBlankModuleID    = errors.New("module id must not be blank")
	ErrBlankVersionID   = errors.New("version id must not be blank")
	ErrDuplicateVersion = errors.New("duplicate version id")
	ErrNilPatch         = errors.New("nil patch")
)

// IrreversibleError reports an attempt to reverse a forward-only patch.
type IrreversibleError struct {
	Tag string
	Up  string
}

func (e *IrreversibleError) Error() string {
	return fmt.Sprintf("irreversible patch: UpSQLPatch(tag=%s, up=`%s`)", e.Tag, e.Up)
}

func (e *IrreversibleError) Unwrap() error {
	return ErrIrreversible
}
