// Package config defines the JSON configuration model for an import run and
// translates it into the options of the packages that do the work.
//
// Example (trimmed):
//
//	{
//	  "job":     "netflix_titles",
//	  "source":  { "path": "netflix_titles.csv", "options": { "comma": "," } },
//	  "schema":  { "mode": "infer", "sample_size": 1000 },
//	  "coerce":  { "on_numeric_error": "fail", "on_date_error": "null" },
//	  "storage": { "kind": "mysql", "host": "localhost", "database": "netflix", "table": "titles" },
//	  "metrics": { "backend": "none" }
//	}
//
// Connection settings can be supplied through the environment instead of the
// file; see Load.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"csvload/internal/coerce"
	"csvload/internal/decode"
	"csvload/internal/importer"
	"csvload/internal/schema"
	"csvload/internal/storage"
)

// Environment variables that override storage settings after decoding.
const (
	EnvDBHost     = "CSVLOAD_DB_HOST"
	EnvDBPort     = "CSVLOAD_DB_PORT"
	EnvDBUser     = "CSVLOAD_DB_USER"
	EnvDBPassword = "CSVLOAD_DB_PASSWORD"
	EnvDBName     = "CSVLOAD_DB_NAME"
	EnvDBDSN      = "CSVLOAD_DB_DSN"
)

// Import is the top-level object decoded from a config file.
type Import struct {
	// Job names the run in logs and metrics.
	Job string `json:"job"`

	Source  Source  `json:"source"`
	Schema  Schema  `json:"schema"`
	Coerce  Coerce  `json:"coerce"`
	Storage Storage `json:"storage"`
	Runtime Runtime `json:"runtime"`
	Metrics Metrics `json:"metrics"`
}

// Source is the input file and how to read it.
type Source struct {
	Path             string `json:"path"`
	Encoding         string `json:"encoding"`
	FallbackEncoding string `json:"fallback_encoding"`

	// Options is read with the typed accessors. Keys:
	//   comma (string), trim_space (bool), null_tokens ([]string)
	Options Options `json:"options"`
}

// Schema selects and tunes column typing.
type Schema struct {
	// Mode is "infer" (default) or "fixed".
	Mode       string `json:"mode"`
	SampleSize int    `json:"sample_size"`
	MaxVarchar int    `json:"max_varchar"`
	// DateMode is "strict" (default) or "us" for month-first numeric dates.
	DateMode string `json:"date_mode"`

	// Fixed mode only.
	DateColumns []string `json:"date_columns"`
	TextColumns []string `json:"text_columns"`

	// DateLayout pins DATE parsing to one Go time layout.
	DateLayout string `json:"date_layout"`

	NormalizeColumns bool `json:"normalize_columns"`
}

// Coerce sets what happens to values that do not parse as their column type:
// "fail" or "null".
type Coerce struct {
	OnNumericError string `json:"on_numeric_error"`
	OnDateError    string `json:"on_date_error"`
}

// Storage addresses the target database and table.
type Storage struct {
	Kind     string `json:"kind"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	// DSN takes precedence over the individual fields.
	DSN string `json:"dsn"`
	// Table may be schema-qualified ("dbo.titles").
	Table string `json:"table"`
}

// Runtime holds logging knobs.
type Runtime struct {
	ProgressEvery int  `json:"progress_every"`
	Verbose       bool `json:"verbose"`
}

// Metrics selects the metrics backend: "none", "pushgateway" or "datadog".
type Metrics struct {
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`
}

// Load reads envFiles (missing files are ignored; variables already set in
// the process win), decodes the JSON file at path and applies the
// CSVLOAD_DB_* overrides.
func Load(path string, envFiles ...string) (Import, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Import{}, fmt.Errorf("config: load env %s: %w", f, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return Import{}, fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()

	var c Import
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Import{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := c.applyEnv(); err != nil {
		return Import{}, err
	}
	return c, nil
}

func (c *Import) applyEnv() error {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Storage.Host, EnvDBHost)
	set(&c.Storage.User, EnvDBUser)
	set(&c.Storage.Password, EnvDBPassword)
	set(&c.Storage.Database, EnvDBName)
	set(&c.Storage.DSN, EnvDBDSN)

	if v := os.Getenv(EnvDBPort); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvDBPort, v, err)
		}
		c.Storage.Port = n
	}
	return nil
}

// StorageConfig returns the connection settings for storage.Open.
func (c Import) StorageConfig() storage.Config {
	return storage.Config{
		Kind:     strings.ToLower(strings.TrimSpace(c.Storage.Kind)),
		Host:     c.Storage.Host,
		Port:     c.Storage.Port,
		User:     c.Storage.User,
		Password: c.Storage.Password,
		Database: c.Storage.Database,
		DSN:      c.Storage.DSN,
	}
}

// ImporterOptions translates c into importer.Options. Unset coercion actions
// keep coerce.DefaultPolicy.
func (c Import) ImporterOptions() (importer.Options, error) {
	mode, err := importer.ParseMode(c.Schema.Mode)
	if err != nil {
		return importer.Options{}, fmt.Errorf("config: schema.mode: %w", err)
	}
	dateMode := schema.ParseDateMode(c.Schema.DateMode)

	policy := coerce.DefaultPolicy()
	policy.DateMode = dateMode
	policy.DateLayout = c.Schema.DateLayout
	if s := c.Coerce.OnNumericError; s != "" {
		if policy.OnNumericError, err = coerce.ParseAction(s); err != nil {
			return importer.Options{}, fmt.Errorf("config: coerce.on_numeric_error: %w", err)
		}
	}
	if s := c.Coerce.OnDateError; s != "" {
		if policy.OnDateError, err = coerce.ParseAction(s); err != nil {
			return importer.Options{}, fmt.Errorf("config: coerce.on_date_error: %w", err)
		}
	}

	return importer.Options{
		Job: c.Job,
		Decode: decode.Options{
			Encoding:         c.Source.Encoding,
			FallbackEncoding: c.Source.FallbackEncoding,
			Comma:            c.Source.Options.Rune("comma", ','),
			TrimSpace:        c.Source.Options.Bool("trim_space", false),
			NullTokens:       c.Source.Options.StringSlice("null_tokens"),
		},
		Mode: mode,
		Infer: schema.InferOptions{
			SampleSize: c.Schema.SampleSize,
			MaxVarchar: c.Schema.MaxVarchar,
			DateMode:   dateMode,
			DateLayout: c.Schema.DateLayout,
		},
		Fixed: schema.FixedOptions{
			DateColumns: c.Schema.DateColumns,
			TextColumns: c.Schema.TextColumns,
			MaxVarchar:  c.Schema.MaxVarchar,
		},
		Policy:           policy,
		NormalizeColumns: c.Schema.NormalizeColumns,
		ProgressEvery:    c.Runtime.ProgressEvery,
		Verbose:          c.Runtime.Verbose,
	}, nil
}

// Options is a small helper to fetch typed values from a free-form JSON
// object. It returns the provided default when a key is absent or has an
// unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64, so both float64 and int are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def. "\t" and
// "tab" both select a tab delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			if s == `\t` || strings.EqualFold(s, "tab") {
				return '\t'
			}
			return []rune(s)[0]
		}
	}
	return def
}

// StringSlice returns the string elements of an array value for key, or nil
// when the key is missing or not an array. An empty array yields an empty,
// non-nil slice.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON decodes a missing or null object into an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
