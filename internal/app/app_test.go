package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "modernc.org/sqlite"

	"csvload/internal/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func sqliteImport(t *testing.T) (config.Import, string) {
	t.Helper()
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "titles.csv",
		"show_id,title,date_added\n1,Kota Factory,\"September 24, 2021\"\n2,Midnight Mass,\n")
	dbPath := filepath.Join(dir, "out.db")
	return config.Import{
		Job:     "app_test",
		Source:  config.Source{Path: csvPath, Options: config.Options{}},
		Storage: config.Storage{Kind: "sqlite", Database: dbPath, Table: "titles"},
		Metrics: config.Metrics{Backend: "none"},
	}, dbPath
}

func countRows(t *testing.T, dbPath, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "` + table + `"`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestRun_SQLite(t *testing.T) {
	cfg, dbPath := sqliteImport(t)

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Inserted != 2 || res.Nulls != 1 {
		t.Fatalf("result = %+v", res)
	}
	if n := countRows(t, dbPath, "titles"); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg, _ := sqliteImport(t)
	cfg.Storage.Table = ""
	cfg.Coerce.OnDateError = "ignore"

	_, err := Run(context.Background(), cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
	for _, want := range []string{"storage.table", "coerce.on_date_error"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestRun_FailedImportIsNotCommitted(t *testing.T) {
	cfg, dbPath := sqliteImport(t)
	cfg.Source.Path = writeFile(t, t.TempDir(), "ids.csv", "id\n1\n2\nthree\n")
	cfg.Schema.SampleSize = 2
	cfg.Storage.Table = "ids"

	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatalf("expected coercion failure")
	}
	if n := countRows(t, dbPath, "ids"); n != 0 {
		t.Fatalf("rows = %d, want 0", n)
	}
}

func TestRunFile(t *testing.T) {
	cfg, dbPath := sqliteImport(t)
	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Marshal uses the json tags, so the file is a valid config.
	path := writeFile(t, t.TempDir(), "import.json", string(b))

	if _, err := RunFile(context.Background(), path); err != nil {
		t.Fatalf("RunFile() error = %v", err)
	}
	if n := countRows(t, dbPath, "titles"); n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
}

// TestRun_PushesMetrics runs an import with the Pushgateway backend pointed
// at a local server and checks the push arrives for the job.
func TestRun_PushesMetrics(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg, _ := sqliteImport(t)
	cfg.Metrics = config.Metrics{Backend: "pushgateway", PushgatewayURL: srv.URL}

	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || !strings.HasPrefix(paths[0], "PUT /metrics/job/app_test") {
		t.Fatalf("pushes = %v", paths)
	}
}

func TestSetupMetrics_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Import
		env  string
	}{
		{"none", config.Import{Metrics: config.Metrics{Backend: "none"}}, ""},
		{"unknown", config.Import{Metrics: config.Metrics{Backend: "graphite"}}, ""},
		{"env none", config.Import{}, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("METRICS_BACKEND", tt.env)
			flush := SetupMetrics(tt.cfg)
			if flush == nil {
				t.Fatalf("flush must never be nil")
			}
			flush()
		})
	}
}

func TestSetupMetrics_Datadog(t *testing.T) {
	flush := SetupMetrics(config.Import{
		Job:     "dd",
		Metrics: config.Metrics{Backend: "datadog", DatadogAddr: "127.0.0.1:18125"},
	})
	// UDP sends do not need a listener.
	flush()
}
