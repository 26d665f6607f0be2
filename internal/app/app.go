// Package app wires one import run end to end: it validates the config,
// installs the metrics backend, opens the storage connection, runs the
// importer and releases everything afterwards.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"csvload/internal/config"
	"csvload/internal/importer"
	"csvload/internal/metrics"
	"csvload/internal/metrics/datadog"
	"csvload/internal/metrics/prompush"
	"csvload/internal/storage"

	// register all backends with the storage factory.
	_ "csvload/internal/storage/all"
)

// Defaults used when the config and environment leave metrics addresses empty.
const (
	DefaultPushgatewayURL = "http://localhost:9091"
	DefaultDatadogAddr    = "127.0.0.1:8125"
)

// ErrInvalidConfig is returned when validation reports at least one error.
var ErrInvalidConfig = errors.New("app: invalid configuration")

// RunFile loads the config at path (plus optional .env files) and runs it.
func RunFile(ctx context.Context, path string, envFiles ...string) (importer.Result, error) {
	cfg, err := config.Load(path, envFiles...)
	if err != nil {
		return importer.Result{}, err
	}
	return Run(ctx, cfg)
}

// Run executes the import described by cfg. The storage connection is opened
// here and always closed before Run returns; a failed import is never
// committed.
func Run(ctx context.Context, cfg config.Import) (importer.Result, error) {
	if err := checkConfig(cfg); err != nil {
		return importer.Result{}, err
	}
	opt, err := cfg.ImporterOptions()
	if err != nil {
		return importer.Result{}, err
	}

	flush := SetupMetrics(cfg)
	defer flush()

	sc := cfg.StorageConfig()
	if cfg.Runtime.Verbose {
		log.Printf("import: source=%s storage=%s table=%s", cfg.Source.Path, sc, cfg.Storage.Table)
	}

	conn, err := storage.Open(ctx, sc)
	if err != nil {
		return importer.Result{}, fmt.Errorf("app: open storage %s: %w", sc, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("storage: close error: %v", err)
		}
	}()

	start := time.Now()
	res, err := importer.New(opt).Run(ctx, conn, cfg.Storage.Table, cfg.Source.Path)
	if err != nil {
		return res, err
	}
	if cfg.Runtime.Verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return res, nil
}

// checkConfig logs every issue and fails when any of them is an error.
func checkConfig(cfg config.Import) error {
	issues := config.Validate(cfg)
	var errs []string
	for _, iss := range issues {
		log.Printf("config: %s: %s: %s", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			errs = append(errs, iss.Path+": "+iss.Message)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// SetupMetrics installs the backend selected by cfg.Metrics.Backend, falling
// back to METRICS_BACKEND. It returns a func that flushes the backend and
// restores the no-op backend. A backend that fails to initialize leaves
// metrics disabled.
func SetupMetrics(cfg config.Import) (flush func()) {
	noop := func() {}

	backendName := strings.ToLower(strings.TrimSpace(cfg.Metrics.Backend))
	if backendName == "" {
		backendName = strings.ToLower(os.Getenv("METRICS_BACKEND"))
	}
	jobName := cfg.Job
	if jobName == "" {
		jobName = importer.DefaultJob
	}

	var (
		b   metrics.Backend
		err error
	)
	switch backendName {
	case "pushgateway":
		gwURL := cfg.Metrics.PushgatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = DefaultPushgatewayURL
		}
		b, err = prompush.NewBackend(jobName, gwURL)
		if err == nil {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, jobName)
		}

	case "datadog":
		addr := cfg.Metrics.DatadogAddr
		if addr == "" {
			addr = DefaultDatadogAddr
		}
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "csvload.",
			GlobalTags: []string{"job:" + jobName},
		})
		if err == nil {
			log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, backendName, jobName)
		}

	case "", "none":
		if cfg.Runtime.Verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
		return noop

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return noop
	}

	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", backendName, err)
		return noop
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
		metrics.Reset()
	}
}
