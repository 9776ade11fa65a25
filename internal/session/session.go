// Package session carries the connection a migration runs on and owns the
// transaction scope shared by every public migrator operation.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/loykin/sqlpatch/internal/common"
)

// Scanner is satisfied by *sql.Row.
type Scanner interface {
	Scan(dest ...any) error
}

// Conn is a single checked-out connection to the store. Implementations keep
// at most one transaction open at a time; Exec and QueryRow run inside it.
type Conn interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) error
	// Exec runs a statement and reports the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// QueryRow runs a single-row query and hands the row to scan. found is
	// false when the query produced no row.
	QueryRow(ctx context.Context, query string, args []any, scan func(Scanner) error) (found bool, err error)
	Commit() error
	Rollback() error
	// TableExists reports whether a table with the given name exists,
	// compared case-insensitively.
	TableExists(ctx context.Context, name string) (bool, error)
	Close() error
}

// Connector hands out a fresh Conn per call.
type Connector func(ctx context.Context) (Conn, error)

// Session is the execution context passed to patches and version managers.
type Session struct {
	conn Conn
	opts *sql.TxOptions
}

// New wraps an already open transaction on conn.
func New(conn Conn, opts *sql.TxOptions) *Session {
	return &Session{conn: conn, opts: opts}
}

// Conn returns the underlying connection.
func (s *Session) Conn() Conn {
	return s.conn
}

// Exec runs a statement inside the current transaction.
func (s *Session) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return s.conn.Exec(ctx, query, args...)
}

// QueryRow runs a single-row query inside the current transaction.
func (s *Session) QueryRow(ctx context.Context, query string, args []any, scan func(Scanner) error) (bool, error) {
	return s.conn.QueryRow(ctx, query, args, scan)
}

// TableExists checks for a table by name, case-insensitively.
func (s *Session) TableExists(ctx context.Context, name string) (bool, error) {
	return s.conn.TableExists(ctx, name)
}

// Checkpoint commits the work done so far and opens a new transaction with
// the same options, so the enclosing Run scope keeps going.
func (s *Session) Checkpoint(ctx context.Context) error {
	if err := s.conn.Commit(); err != nil {
		return err
	}
	return s.conn.BeginTx(ctx, s.opts)
}

// Run checks out a connection, opens a transaction, runs fn and commits.
// If fn fails (or panics) the transaction is rolled back and fn's error is
// returned unchanged. The connection is closed on every path.
func Run(ctx context.Context, connect Connector, opts *sql.TxOptions, fn func(*Session) error) (err error) {
	if connect == nil {
		return errors.New("session: nil connector")
	}
	logger := common.GetLogger().WithComponent("session")

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	if conn == nil {
		return fmt.Errorf("session: connector returned nil connection")
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logger.Warn("failed to release connection", "error", cerr)
		}
	}()

	if err := conn.BeginTx(ctx, opts); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := conn.Rollback(); rbErr != nil {
				logger.Warn("rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(New(conn, opts)); err != nil {
		if rbErr := conn.Rollback(); rbErr != nil {
			logger.Warn("rollback failed", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := conn.Commit(); err != nil {
		if rbErr := conn.Rollback(); rbErr != nil {
			logger.Debug("rollback after failed commit", "error", rbErr)
		}
		return err
	}
	return nil
}

// TxOptions builds transaction options for an isolation level. The zero
// level keeps the driver default and yields nil options.
func TxOptions(level sql.IsolationLevel) *sql.TxOptions {
	if level == sql.LevelDefault {
		return nil
	}
	return &sql.TxOptions{Isolation: level}
}
