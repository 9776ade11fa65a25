package migration

import (
	"errors"
	"fmt"
)

// ErrIllegalVersion is matched by every VersionError: the declared versions
// and the persisted marker disagree, or the version manager failed.
var ErrIllegalVersion = errors.New("illegal version")

const (
	OpInitialize = "initialize"
	OpCurrent    = "get current version"
	OpSetCurrent = "set current version"
	OpMigrate    = "migrate"
	OpRollback   = "rollback"
	OpStatus     = "status"
)

// VersionError carries the operation and version id behind an ErrIllegalVersion.
type VersionError struct {
	Op        string
	VersionID string
	Reason    string
	Err       error
}

func (e *VersionError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ErrIllegalVersion, e.Op, e.Reason)
	if e.VersionID != "" {
		msg += fmt.Sprintf(" (version id=%q)", e.VersionID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *VersionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrIllegalVersion}
	}
	return []error{ErrIllegalVersion, e.Err}
}

func requestedNotFound(op, id string) error {
	return &VersionError{Op: op, VersionID: id, Reason: "requested version id not found"}
}

func currentNotFound(op, id string) error {
	return &VersionError{Op: op, VersionID: id, Reason: "current version id not found"}
}
