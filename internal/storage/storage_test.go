package storage

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"csvload/internal/ddl"
)

// fakeConn is a minimal Conn for registry tests.
type fakeConn struct {
	closed bool
}

func (f *fakeConn) Dialect() ddl.Dialect                       { return ddl.Generic }
func (f *fakeConn) Exec(context.Context, string, ...any) error { return nil }
func (f *fakeConn) Commit(context.Context) error               { return nil }
func (f *fakeConn) Close() error                               { f.closed = true; return nil }

// TestRegisterAndOpen_Success verifies that registering a backend enables
// Open to return its connection.
func TestRegisterAndOpen_Success(t *testing.T) {
	t.Parallel()

	kind := "fake"
	var gotCfg Config
	Register(kind, func(ctx context.Context, cfg Config) (Conn, error) {
		gotCfg = cfg
		return &fakeConn{}, nil
	})

	cfg := Config{Kind: "FAKE", Host: "h", User: "u", Database: "d"}
	conn, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if conn == nil {
		t.Fatalf("Open returned nil conn")
	}
	if gotCfg != cfg {
		t.Fatalf("factory cfg = %+v, want %+v", gotCfg, cfg)
	}

	found := false
	for _, k := range ListKinds() {
		if k == kind {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("registered kind %q not present in ListKinds: %v", kind, ListKinds())
	}
}

// TestOpen_Unsupported verifies that unsupported kinds return a helpful error.
func TestOpen_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Kind: "does-not-exist"})
	if err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
	if got, want := err.Error(), "unsupported storage.kind=does-not-exist"; got != want {
		t.Fatalf("error = %q, want %q", got, want)
	}
}

// TestRegister_Override verifies that re-registering a kind replaces the
// previous factory.
func TestRegister_Override(t *testing.T) {
	t.Parallel()

	kind := "override"
	calls := 0

	Register(kind, func(ctx context.Context, cfg Config) (Conn, error) {
		calls++
		return &fakeConn{}, nil
	})
	Register(kind, func(ctx context.Context, cfg Config) (Conn, error) {
		calls += 10
		return &fakeConn{}, nil
	})

	if _, err := Open(context.Background(), Config{Kind: kind}); err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if calls != 10 {
		t.Fatalf("factory call count = %d, want 10", calls)
	}
}

// TestListKinds_Snapshot checks that ListKinds returns a copy.
func TestListKinds_Snapshot(t *testing.T) {
	t.Parallel()

	Register("snap", func(ctx context.Context, cfg Config) (Conn, error) { return &fakeConn{}, nil })

	a := ListKinds()
	if len(a) == 0 {
		t.Fatalf("ListKinds empty after registration")
	}
	a[0] = "mutated"

	b := ListKinds()
	if reflect.DeepEqual(a, b) {
		t.Fatalf("ListKinds returned same slice; want snapshot copy")
	}
}

// TestRegister_AllowsErrors shows factory errors bubble up unchanged.
func TestRegister_AllowsErrors(t *testing.T) {
	t.Parallel()

	kind := "errkind"
	want := errors.New("boom")
	Register(kind, func(ctx context.Context, cfg Config) (Conn, error) {
		return nil, want
	})

	_, err := Open(context.Background(), Config{Kind: kind})
	if !errors.Is(err, want) {
		t.Fatalf("want %v, got %v", want, err)
	}
}

func TestConfigString_HidesPassword(t *testing.T) {
	s := Config{Kind: "mysql", Host: "db", Port: 3306, User: "root", Password: "hunter2", Database: "netflix"}.String()
	if strings.Contains(s, "hunter2") {
		t.Fatalf("password leaked: %s", s)
	}
	if s != "mysql://root@db:3306/netflix" {
		t.Fatalf("String() = %q", s)
	}
	if got := (Config{Kind: "postgres", DSN: "postgres://u:p@h/d"}).String(); strings.Contains(got, ":p@") {
		t.Fatalf("dsn leaked: %s", got)
	}
}
