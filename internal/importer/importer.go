// Package importer drives one CSV import end to end: decode the file, pick a
// storage type per column, create the table if absent, insert every row with
// coerced parameters and commit once.
//
// The storage connection is owned by the caller. Run never opens or closes
// it; a failed import leaves the uncommitted work for Close to discard.
package importer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"csvload/internal/coerce"
	"csvload/internal/ddl"
	"csvload/internal/decode"
	"csvload/internal/metrics"
	"csvload/internal/schema"
	"csvload/internal/storage"
	"csvload/internal/table"
)

// DefaultProgressEvery is how many inserted rows pass between progress lines.
const DefaultProgressEvery = 1000

// DefaultJob labels metrics when Options.Job is empty.
const DefaultJob = "csvload"

// Mode selects how column types are chosen.
type Mode int

const (
	// ModeInfer samples the data.
	ModeInfer Mode = iota
	// ModeFixed uses the hardcoded name-based mapping and ignores the data.
	ModeFixed
)

func (m Mode) String() string {
	if m == ModeFixed {
		return "fixed"
	}
	return "infer"
}

// ParseMode maps "infer"/"fixed" to a Mode; empty selects ModeInfer.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "infer":
		return ModeInfer, nil
	case "fixed":
		return ModeFixed, nil
	}
	return ModeInfer, fmt.Errorf("importer: unknown schema mode %q (want infer|fixed)", s)
}

// Options configures an Importer.
type Options struct {
	// Job labels metrics and log lines.
	Job string

	Decode decode.Options

	Mode  Mode
	Infer schema.InferOptions
	Fixed schema.FixedOptions

	// Policy decides what happens to values that do not parse as their
	// column type. The zero Policy behaves like coerce.DefaultPolicy. In
	// fixed mode an empty DateLayout selects schema.DefaultFixedDateLayout.
	Policy coerce.Policy

	// NormalizeColumns rewrites column names into plain SQL identifiers.
	NormalizeColumns bool

	// ProgressEvery logs a progress line after this many inserts. Zero
	// selects DefaultProgressEvery; negative disables progress lines.
	ProgressEvery int

	// Verbose logs every executed insert with its arguments.
	Verbose bool
}

// Result summarizes a finished (or aborted) import.
type Result struct {
	RunID       uuid.UUID
	Table       string
	Schema      schema.Schema
	Rows        int // data rows decoded
	Inserted    int // rows executed against the connection
	Nulls       int // NULL parameters bound
	Skipped     int // records dropped by the decoder
	Encoding    string
	Fingerprint uint64
	DDL         string
	Elapsed     time.Duration
}

// Importer runs imports with a fixed set of options. Each Run is independent;
// an Importer holds no per-import state.
type Importer struct {
	opt Options

	// now is a seam for progress tests.
	now func() time.Time
}

// New returns an Importer for opt.
func New(opt Options) *Importer {
	if opt.Job == "" {
		opt.Job = DefaultJob
	}
	if opt.ProgressEvery == 0 {
		opt.ProgressEvery = DefaultProgressEvery
	}
	if opt.Mode == ModeFixed && opt.Policy.DateLayout == "" {
		opt.Policy.DateLayout = schema.DefaultFixedDateLayout
	}
	return &Importer{opt: opt, now: time.Now}
}

// Run imports the file at path into tableName over conn.
//
// The returned Result is populated as far as the import got, also on error.
func (im *Importer) Run(ctx context.Context, conn storage.Conn, tableName, path string) (res Result, err error) {
	res = Result{RunID: uuid.New(), Table: tableName}
	start := im.now()
	defer func() { res.Elapsed = im.now().Sub(start) }()

	log.Printf("importer: run=%s job=%s file=%s table=%s dialect=%s mode=%s",
		res.RunID, im.opt.Job, path, tableName, conn.Dialect().Name, im.opt.Mode)

	// 1. decode
	var t *table.Table
	err = im.step("decode", func() error {
		var err error
		t, err = decode.File(ctx, path, im.opt.Decode)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("importer: decode: %w", err)
	}
	res.Rows = len(t.Rows)
	res.Skipped = t.Skipped
	res.Encoding = t.Encoding
	res.Fingerprint = t.Fingerprint
	metrics.RecordRow(im.opt.Job, "skipped", int64(t.Skipped))

	// 2. infer; never fails, so it is timed here rather than through step
	inferStart := im.now()
	s := im.buildSchema(t)
	metrics.RecordStep(im.opt.Job, "infer", nil, im.now().Sub(inferStart))
	res.Schema = s
	for _, c := range s.Columns {
		log.Printf("importer: column %s -> %s", c.Name, c.Type)
		metrics.RecordColumn(im.opt.Job, c.Type.Kind.String())
	}

	// 3. create
	d := conn.Dialect()
	err = im.step("create", func() error {
		stmt, err := ddl.CreateTable(d, tableName, s)
		if err != nil {
			return err
		}
		res.DDL = stmt
		log.Printf("importer: %s", stmt)
		return conn.Exec(ctx, stmt)
	})
	if err != nil {
		return res, fmt.Errorf("importer: create table %s: %w", tableName, err)
	}

	// 4. insert
	err = im.step("insert", func() error {
		return im.insertRows(ctx, conn, d, tableName, s, t, &res)
	})
	metrics.RecordRow(im.opt.Job, "inserted", int64(res.Inserted))
	metrics.RecordRow(im.opt.Job, "null_cells", int64(res.Nulls))
	if err != nil {
		return res, fmt.Errorf("importer: insert into %s: %w", tableName, err)
	}

	// 5. commit
	err = im.step("commit", func() error { return conn.Commit(ctx) })
	if err != nil {
		return res, fmt.Errorf("importer: commit: %w", err)
	}

	log.Printf("importer: summary: run=%s rows=%d inserted=%d null_cells=%d skipped=%d encoding=%s elapsed=%s",
		res.RunID, res.Rows, res.Inserted, res.Nulls, res.Skipped, res.Encoding,
		im.now().Sub(start).Truncate(time.Millisecond))
	return res, nil
}

// step runs fn and records it as one import step.
func (im *Importer) step(name string, fn func() error) error {
	start := im.now()
	err := fn()
	metrics.RecordStep(im.opt.Job, name, err, im.now().Sub(start))
	return err
}

func (im *Importer) buildSchema(t *table.Table) schema.Schema {
	var s schema.Schema
	if im.opt.Mode == ModeFixed {
		s = schema.Fixed(t.Columns, im.opt.Fixed)
	} else {
		s = schema.Infer(t, im.opt.Infer)
	}
	if !im.opt.NormalizeColumns {
		return s
	}
	names := schema.NormalizeNames(s.Names())
	cols := make([]schema.Column, len(s.Columns))
	for i, c := range s.Columns {
		if names[i] != c.Name {
			log.Printf("importer: column %q renamed to %q", c.Name, names[i])
		}
		cols[i] = schema.Column{Name: names[i], Type: c.Type}
	}
	return schema.Schema{Columns: cols}
}

func (im *Importer) insertRows(
	ctx context.Context,
	conn storage.Conn,
	d ddl.Dialect,
	tableName string,
	s schema.Schema,
	t *table.Table,
	res *Result,
) error {
	stmt, err := ddl.Insert(d, tableName, s.Names())
	if err != nil {
		return err
	}
	log.Printf("importer: %s", stmt)

	c := coerce.New(im.opt.Policy)
	p := newProgress(im.opt.ProgressEvery, im.now)

	for i, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		args, err := c.Row(s, row, i+1)
		if err != nil {
			return err
		}
		if im.opt.Verbose {
			log.Printf("importer: row %d: %s %v", i+1, stmt, args)
		}
		if err := conn.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		res.Inserted++
		for _, a := range args {
			if a == nil {
				res.Nulls++
			}
		}
		p.tick(res.Inserted)
	}
	return nil
}
