package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"csvload/internal/ddl"
)

// SQLConn implements Conn over database/sql. The first parameterized
// statement begins a transaction; statements without arguments issued
// outside a transaction (DDL) run in autocommit mode. Prepared statements are
// cached per statement text until Commit.
type SQLConn struct {
	name    string
	db      *sql.DB
	dialect ddl.Dialect

	// Bind, if set, rewrites every argument before it reaches the driver.
	Bind func(v any) any

	tx    *sql.Tx
	stmts map[string]*sql.Stmt
}

var _ Conn = (*SQLConn)(nil)

// NewSQLConn takes ownership of db. name prefixes error messages.
func NewSQLConn(name string, db *sql.DB, d ddl.Dialect) *SQLConn {
	return &SQLConn{name: name, db: db, dialect: d}
}

func (c *SQLConn) Dialect() ddl.Dialect { return c.dialect }

// DB exposes the underlying pool, mainly for tests.
func (c *SQLConn) DB() *sql.DB { return c.db }

func (c *SQLConn) Exec(ctx context.Context, stmt string, args ...any) error {
	if len(args) == 0 && c.tx == nil {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: exec: %w", c.name, err)
		}
		return nil
	}

	if c.tx == nil {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%s: begin tx: %w", c.name, err)
		}
		c.tx = tx
		c.stmts = make(map[string]*sql.Stmt)
	}

	st, ok := c.stmts[stmt]
	if !ok {
		var err error
		st, err = c.tx.PrepareContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("%s: prepare: %w", c.name, err)
		}
		c.stmts[stmt] = st
	}

	if c.Bind != nil {
		bound := make([]any, len(args))
		for i, a := range args {
			bound[i] = c.Bind(a)
		}
		args = bound
	}
	if _, err := st.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("%s: exec: %w", c.name, err)
	}
	return nil
}

// Commit commits the open transaction, if any.
func (c *SQLConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.closeStmts()
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", c.name, err)
	}
	return nil
}

// Close rolls back an uncommitted transaction and closes the pool.
func (c *SQLConn) Close() error {
	var errs []error
	if c.tx != nil {
		c.closeStmts()
		if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, fmt.Errorf("%s: rollback: %w", c.name, err))
		}
		c.tx = nil
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%s: close: %w", c.name, err))
	}
	return errors.Join(errs...)
}

func (c *SQLConn) closeStmts() {
	for _, st := range c.stmts {
		_ = st.Close()
	}
	c.stmts = nil
}
