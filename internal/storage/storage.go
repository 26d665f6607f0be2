// Package storage defines the connection contract the importer needs from a
// relational database and a registry of backends that can provide it.
//
// Backends live in subpackages and register themselves from init:
//
//	import _ "csvload/internal/storage/all" // mysql, postgres, mssql, sqlite
//
//	conn, err := storage.Open(ctx, storage.Config{Kind: "mysql", Host: "localhost", ...})
//	if err != nil { ... }
//	defer conn.Close()
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"csvload/internal/ddl"
)

// Conn is a scoped database session. It is not safe for concurrent use.
//
// Exec runs one statement with positional arguments; a nil argument binds
// SQL NULL. Statements run inside a transaction that Commit ends.
// Close releases the session and discards anything not committed.
type Conn interface {
	Dialect() ddl.Dialect
	Exec(ctx context.Context, stmt string, args ...any) error
	Commit(ctx context.Context) error
	Close() error
}

// Config selects and addresses a backend. When DSN is set it takes precedence
// over the individual connection fields.
type Config struct {
	Kind     string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	DSN      string
}

// String renders cfg without the password, for logs.
func (c Config) String() string {
	if c.DSN != "" {
		return fmt.Sprintf("%s(dsn)", c.Kind)
	}
	return fmt.Sprintf("%s://%s@%s:%d/%s", c.Kind, c.User, c.Host, c.Port, c.Database)
}

// Factory opens a Conn for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Conn, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, fn Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(kind)] = fn
}

// Open connects using the factory registered for cfg.Kind.
func Open(ctx context.Context, cfg Config) (Conn, error) {
	mu.RLock()
	fn, ok := factories[strings.ToLower(cfg.Kind)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
