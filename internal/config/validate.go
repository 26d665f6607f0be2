package config

import (
	"fmt"
	"strings"

	"csvload/internal/coerce"
	"csvload/internal/decode"
	"csvload/internal/importer"
	"csvload/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path is a dotted path into the
// config (e.g. "storage.kind").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is a SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks over c. It does not mutate c and does not
// touch the filesystem or network.
//
//	issues := config.Validate(c)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func Validate(c Import) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  fmt.Sprintf("job is empty; metrics will be labelled %q", importer.DefaultJob),
		})
	}
	issues = append(issues, validateSource(c.Source)...)
	issues = append(issues, validateSchema(c.Schema)...)
	issues = append(issues, validateCoerce(c.Coerce)...)
	issues = append(issues, validateStorage(c.Storage)...)
	issues = append(issues, validateRuntime(c.Runtime)...)
	issues = append(issues, validateMetrics(c.Metrics)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.path",
			Message:  "source.path must not be empty",
		})
	}
	for _, enc := range []struct{ path, name string }{
		{"source.encoding", s.Encoding},
		{"source.fallback_encoding", s.FallbackEncoding},
	} {
		if enc.name == "" {
			continue
		}
		if err := decode.CheckEncoding(enc.name); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     enc.path,
				Message:  err.Error(),
			})
		}
	}
	if comma := s.Options.String("comma", ","); len([]rune(comma)) != 1 && comma != `\t` && !strings.EqualFold(comma, "tab") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", comma),
		})
	}
	return issues
}

func validateSchema(s Schema) []Issue {
	var issues []Issue

	mode, err := importer.ParseMode(s.Mode)
	if err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "schema.mode",
			Message:  err.Error(),
		})
	}
	if s.SampleSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "schema.sample_size",
			Message:  "sample_size must not be negative",
		})
	}
	if s.MaxVarchar < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "schema.max_varchar",
			Message:  "max_varchar must not be negative",
		})
	}
	switch strings.ToLower(strings.TrimSpace(s.DateMode)) {
	case "", "strict", "us", "mdy", "month_first":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "schema.date_mode",
			Message:  fmt.Sprintf("unknown date_mode %q; strict parsing will be used", s.DateMode),
		})
	}
	if mode != importer.ModeFixed && (len(s.DateColumns) > 0 || len(s.TextColumns) > 0) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "schema",
			Message:  "date_columns/text_columns only apply to fixed mode and are ignored",
		})
	}
	return issues
}

func validateCoerce(c Coerce) []Issue {
	var issues []Issue
	for _, a := range []struct{ path, value string }{
		{"coerce.on_numeric_error", c.OnNumericError},
		{"coerce.on_date_error", c.OnDateError},
	} {
		if _, err := coerce.ParseAction(a.value); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     a.path,
				Message:  err.Error(),
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.table",
			Message:  "storage.table must not be empty",
		})
	}

	kind := strings.ToLower(strings.TrimSpace(s.Kind))
	if kind == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	if known := storage.ListKinds(); len(known) > 0 && !contains(known, kind) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q (registered: %s)", s.Kind, strings.Join(known, ", ")),
		})
	}

	if s.DSN != "" {
		return issues
	}
	if kind == "sqlite" {
		if strings.TrimSpace(s.Database) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.database",
				Message:  "sqlite needs storage.database (file path) or storage.dsn",
			})
		}
		return issues
	}
	if strings.TrimSpace(s.Host) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.host",
			Message:  "storage.host must not be empty when storage.dsn is not set",
		})
	}
	if strings.TrimSpace(s.Database) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.database",
			Message:  "storage.database must not be empty when storage.dsn is not set",
		})
	}
	if s.Port < 0 || s.Port > 65535 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.port",
			Message:  fmt.Sprintf("port %d out of range", s.Port),
		})
	}
	if s.User == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.user",
			Message:  "storage.user is empty; the driver default will be used",
		})
	}
	return issues
}

func validateRuntime(r Runtime) []Issue {
	if r.ProgressEvery < 0 {
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "runtime.progress_every",
			Message:  "negative progress_every disables progress logging",
		}}
	}
	return nil
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch strings.ToLower(strings.TrimSpace(m.Backend)) {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway_url is empty; PUSHGATEWAY_URL or http://localhost:9091 will be used",
			})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  "datadog_addr is empty; 127.0.0.1:8125 will be used",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics disabled", m.Backend),
		})
	}
	return issues
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
