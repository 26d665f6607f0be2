// Package coerce converts raw cells into values bindable as statement
// parameters, according to the column's storage type.
package coerce

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"csvload/internal/schema"
	"csvload/internal/table"
)

// Action is what to do when a present value does not parse as its column type.
type Action int

const (
	// Default picks the per-kind default: Fail for numbers, Null for dates.
	Default Action = iota
	// Fail aborts with a *Error.
	Fail
	// Null binds NULL instead.
	Null
)

func (a Action) String() string {
	switch a {
	case Fail:
		return "fail"
	case Null:
		return "null"
	}
	return "default"
}

// ParseAction maps "fail"/"null" to an Action; empty selects Default.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return Default, nil
	case "fail":
		return Fail, nil
	case "null":
		return Null, nil
	}
	return Default, fmt.Errorf("coerce: unknown action %q (want fail|null)", s)
}

// Policy controls coercion failures and date parsing. The zero Policy
// behaves like DefaultPolicy.
type Policy struct {
	OnNumericError Action
	OnDateError    Action

	// DateMode is used when DateLayout is empty.
	DateMode schema.DateMode
	// DateLayout, if set, is the only accepted date layout.
	DateLayout string
}

// DefaultPolicy fails on bad numbers and NULLs bad dates.
func DefaultPolicy() Policy {
	return Policy{OnNumericError: Fail, OnDateError: Null}
}

// Error describes a value that could not be coerced.
type Error struct {
	Row    int // 1-based data row; 0 when unknown
	Column string
	Kind   schema.Kind
	Value  string
	Err    error
}

func (e *Error) Error() string {
	loc := e.Column
	if e.Row > 0 {
		loc = fmt.Sprintf("row %d, column %s", e.Row, e.Column)
	}
	return fmt.Sprintf("coerce %s: %q is not %s: %v", loc, e.Value, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrColumnCount is returned by Row when the row and schema disagree in width.
var ErrColumnCount = errors.New("coerce: row width does not match schema")

// Coercer is stateless apart from its policy and safe to reuse across rows.
type Coercer struct {
	policy Policy
}

// New returns a Coercer for p with Default actions resolved.
func New(p Policy) *Coercer {
	if p.OnNumericError == Default {
		p.OnNumericError = Fail
	}
	if p.OnDateError == Default {
		p.OnDateError = Null
	}
	return &Coercer{policy: p}
}

// Value returns int64, float64, time.Time, string or nil (NULL).
func (c *Coercer) Value(typ schema.ColumnType, cell table.Cell) (any, error) {
	if cell.Missing {
		return nil, nil
	}
	raw := cell.Raw

	switch typ.Kind {
	case schema.Integer:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return c.fail(c.policy.OnNumericError, typ, raw, err)
		}
		return n, nil

	case schema.Float:
		f, err := schema.ParseNumber(raw)
		if err != nil {
			return c.fail(c.policy.OnNumericError, typ, raw, err)
		}
		return f, nil

	case schema.Date:
		t, err := c.parseDate(raw)
		if err != nil {
			return c.fail(c.policy.OnDateError, typ, raw, err)
		}
		return civil.DateOf(t).In(time.UTC), nil

	case schema.BoundedString, schema.UnboundedText:
		return Text(raw), nil
	}
	return nil, &Error{Kind: typ.Kind, Value: raw, Err: fmt.Errorf("unsupported type %v", typ)}
}

// Row coerces every cell of row in schema column order. rowNum is only used
// to annotate errors.
func (c *Coercer) Row(s schema.Schema, row table.Row, rowNum int) ([]any, error) {
	if len(row) != len(s.Columns) {
		return nil, fmt.Errorf("%w: row %d has %d cells, schema has %d columns",
			ErrColumnCount, rowNum, len(row), len(s.Columns))
	}
	out := make([]any, len(row))
	for i, col := range s.Columns {
		v, err := c.Value(col.Type, row[i])
		if err != nil {
			var ce *Error
			if errors.As(err, &ce) {
				ce.Row = rowNum
				ce.Column = col.Name
			}
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Text replaces double quotes with single quotes.
func Text(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}

func (c *Coercer) parseDate(raw string) (time.Time, error) {
	if c.policy.DateLayout != "" {
		return schema.ParseDateLayout(raw, c.policy.DateLayout)
	}
	return schema.ParseDate(raw, c.policy.DateMode)
}

func (c *Coercer) fail(a Action, typ schema.ColumnType, raw string, err error) (any, error) {
	if a == Null {
		return nil, nil
	}
	return nil, &Error{Kind: typ.Kind, Value: raw, Err: err}
}
