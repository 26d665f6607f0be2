// Package postgres registers the "postgres" storage backend. It talks to the
// server through a single pgx connection rather than database/sql.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"

	"csvload/internal/ddl"
	"csvload/internal/storage"
)

// DefaultPort is used when Config.Port is zero.
const DefaultPort = 5432

// newConn is a test hook that points to Open by default.
var newConn = Open

func init() {
	for _, kind := range []string{"postgres", "postgresql"} {
		storage.Register(kind, func(ctx context.Context, cfg storage.Config) (storage.Conn, error) {
			c, err := newConn(ctx, connString(cfg))
			if err != nil {
				return nil, err
			}
			return c, nil
		})
	}
}

// connString returns cfg.DSN or builds a postgres:// URL from the parts.
func connString(cfg storage.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:   "/" + cfg.Database,
	}
	return u.String()
}

// Conn is a storage.Conn over one pgx connection. pgx caches prepared
// statements per connection, so repeated INSERTs are prepared once.
type Conn struct {
	conn *pgx.Conn
	tx   pgx.Tx
}

var _ storage.Conn = (*Conn)(nil)

// Open connects using a libpq-style or URL connection string.
func Open(ctx context.Context, connString string) (*Conn, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres dsn: %w", err)
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Conn{conn: conn}, nil
}

func (c *Conn) Dialect() ddl.Dialect { return ddl.Postgres }

// Exec runs DDL outside a transaction when none is open; parameterized
// statements begin one lazily.
func (c *Conn) Exec(ctx context.Context, stmt string, args ...any) error {
	if len(args) == 0 && c.tx == nil {
		if _, err := c.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: exec: %w", err)
		}
		return nil
	}
	if c.tx == nil {
		tx, err := c.conn.Begin(ctx)
		if err != nil {
			return fmt.Errorf("postgres: begin tx: %w", err)
		}
		c.tx = tx
	}
	if _, err := c.tx.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Close rolls back anything uncommitted and closes the connection.
func (c *Conn) Close() error {
	ctx := context.Background()
	var errs []error
	if c.tx != nil {
		if err := c.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			errs = append(errs, fmt.Errorf("postgres: rollback: %w", err))
		}
		c.tx = nil
	}
	if err := c.conn.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("postgres: close: %w", err))
	}
	return errors.Join(errs...)
}
