package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"csvload/internal/storage"
)

func TestConnString_FromParts(t *testing.T) {
	cs := connString(storage.Config{Host: "pg.local", User: "etl", Password: "p w", Database: "netflix"})

	cfg, err := pgx.ParseConfig(cs)
	if err != nil {
		t.Fatalf("pgx.ParseConfig(%q): %v", cs, err)
	}
	if cfg.Host != "pg.local" || cfg.Port != 5432 || cfg.Database != "netflix" || cfg.User != "etl" || cfg.Password != "p w" {
		t.Fatalf("parsed = host %q port %d db %q user %q", cfg.Host, cfg.Port, cfg.Database, cfg.User)
	}
}

func TestConnString_PassThrough(t *testing.T) {
	in := "host=h user=u dbname=d"
	if got := connString(storage.Config{DSN: in}); got != in {
		t.Fatalf("connString = %q", got)
	}
}

func TestOpen_InvalidConnString(t *testing.T) {
	_, err := Open(context.Background(), "postgres://h:notaport/db")
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRegistrationUsesNewConnHook(t *testing.T) {
	orig := newConn
	defer func() { newConn = orig }()

	want := errors.New("no server in tests")
	var calls int
	newConn = func(ctx context.Context, cs string) (*Conn, error) {
		calls++
		return nil, want
	}

	for _, kind := range []string{"postgres", "postgresql"} {
		if _, err := storage.Open(context.Background(), storage.Config{Kind: kind, Host: "h"}); !errors.Is(err, want) {
			t.Fatalf("%s: err = %v", kind, err)
		}
	}
	if calls != 2 {
		t.Fatalf("hook calls = %d, want 2", calls)
	}
}

func TestDialect(t *testing.T) {
	if got := (&Conn{}).Dialect().Name; got != "postgres" {
		t.Fatalf("Dialect = %s", got)
	}
}
