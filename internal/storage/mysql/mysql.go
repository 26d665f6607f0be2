// Package mysql registers the "mysql" storage backend using
// github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"csvload/internal/ddl"
	"csvload/internal/storage"
)

// DefaultPort is used when Config.Port is zero.
const DefaultPort = 3306

// newConn is a test hook that points to Open by default.
var newConn = Open

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Conn, error) {
		mc, err := driverConfig(cfg)
		if err != nil {
			return nil, err
		}
		c, err := newConn(ctx, mc)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// driverConfig builds the driver configuration from cfg. A DSN is parsed
// as-is; otherwise host, port, user, password and database are used.
func driverConfig(cfg storage.Config) (*mysql.Config, error) {
	if cfg.DSN != "" {
		mc, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("mysql dsn: %w", err)
		}
		mc.ParseTime = true
		return mc, nil
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc, nil
}

// Open connects with mc and pings the server.
func Open(ctx context.Context, mc *mysql.Config) (*storage.SQLConn, error) {
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping %s: %w", mc.Addr, err)
	}
	return storage.NewSQLConn("mysql", db, ddl.MySQL), nil
}
