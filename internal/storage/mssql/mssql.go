// Package mssql registers the "mssql" storage backend using
// github.com/microsoft/go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"csvload/internal/ddl"
	"csvload/internal/storage"
)

// DefaultPort is used when Config.Port is zero.
const DefaultPort = 1433

// newConn is a test hook that points to Open by default.
var newConn = Open

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Conn, error) {
		c, err := newConn(ctx, dsn(cfg))
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// dsn returns cfg.DSN or builds a sqlserver:// URL from the parts.
func dsn(cfg storage.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
	}
	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Open validates dsn, connects and pings the server.
func Open(ctx context.Context, dsn string) (*storage.SQLConn, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	connector, err := mssql.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return storage.NewSQLConn("mssql", db, ddl.MSSQL), nil
}
