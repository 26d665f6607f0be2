// Package sqlite registers the "sqlite" storage backend (modernc.org/sqlite,
// no cgo). Config.DSN, or else Config.Database, is the database file path.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"csvload/internal/ddl"
	"csvload/internal/storage"
)

// DateLayout is how DATE values are stored in SQLite TEXT columns.
const DateLayout = "2006-01-02"

// newConn is a test hook that points to Open by default.
var newConn = Open

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Conn, error) {
		c, err := newConn(ctx, dsn(cfg))
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

func dsn(cfg storage.Config) string {
	if s := strings.TrimSpace(cfg.DSN); s != "" {
		return s
	}
	return strings.TrimSpace(cfg.Database)
}

// Open opens the database at dsn and pings it.
func Open(ctx context.Context, dsn string) (*storage.SQLConn, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	c := storage.NewSQLConn("sqlite", db, ddl.SQLite)
	c.Bind = bindDate
	return c, nil
}

// bindDate stores time values as ISO-8601 dates.
func bindDate(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(DateLayout)
	}
	return v
}
