package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/loykin/sqlpatch/internal/session"
)

var (
	// ErrTxActive is returned by BeginTx while a transaction is already open.
	ErrTxActive = errors.New("store: transaction already active")
	// ErrNoTx is returned by Commit and Rollback without an open transaction.
	ErrNoTx = errors.New("store: no active transaction")
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLConn implements session.Conn on top of a single *sql.Conn.
type SQLConn struct {
	conn    *sql.Conn
	tx      *sql.Tx
	dialect Dialect
}

var _ session.Conn = (*SQLConn)(nil)

func NewSQLConn(conn *sql.Conn, dialect Dialect) *SQLConn {
	return &SQLConn{conn: conn, dialect: dialect}
}

func (c *SQLConn) BeginTx(ctx context.Context, opts *sql.TxOptions) error {
	if c.tx != nil {
		return ErrTxActive
	}
	tx, err := c.conn.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

func (c *SQLConn) target() execer {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

// rebind only touches queries that carry arguments; patch bodies are sent verbatim.
func (c *SQLConn) rebind(query string, args []any) string {
	if len(args) == 0 || c.dialect == nil {
		return query
	}
	return c.dialect.Rebind(query)
}

func (c *SQLConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.target().ExecContext(ctx, c.rebind(query, args), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *SQLConn) QueryRow(ctx context.Context, query string, args []any, scan func(session.Scanner) error) (bool, error) {
	row := c.target().QueryRowContext(ctx, c.rebind(query, args), args...)
	if err := scan(row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *SQLConn) Commit() error {
	if c.tx == nil {
		return ErrNoTx
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit()
}

func (c *SQLConn) Rollback() error {
	if c.tx == nil {
		return ErrNoTx
	}
	tx := c.tx
	c.tx = nil
	return tx.Rollback()
}

func (c *SQLConn) TableExists(ctx context.Context, name string) (bool, error) {
	query, args := c.dialect.TableExists(name)
	return c.QueryRow(ctx, query, args, func(s session.Scanner) error {
		var one int
		return s.Scan(&one)
	})
}

// Close rolls back a transaction left open and returns the connection to the pool.
func (c *SQLConn) Close() error {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	return c.conn.Close()
}
