package schema

import (
	"strings"
	"unicode/utf8"

	"csvload/internal/table"
)

// DefaultSampleSize is the number of leading rows examined per column.
const DefaultSampleSize = 1000

// InferOptions tunes Infer. Zero values select the defaults.
type InferOptions struct {
	// SampleSize bounds how many leading rows are examined.
	SampleSize int
	// MaxVarchar is the BOUNDED_STRING length and the cut-over to
	// UNBOUNDED_TEXT.
	MaxVarchar int
	// DateMode is passed to ParseDate.
	DateMode DateMode
	// DateLayout, if set, is the only layout a DATE value may have, so
	// inference agrees with coercion.
	DateLayout string
}

func (o InferOptions) withDefaults() InferOptions {
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.MaxVarchar <= 0 {
		o.MaxVarchar = DefaultMaxVarchar
	}
	return o
}

// Infer returns one storage type per column of t, in column order.
func Infer(t *table.Table, opt InferOptions) Schema {
	opt = opt.withDefaults()
	cols := make([]Column, len(t.Columns))
	for i, name := range t.Columns {
		cols[i] = Column{
			Name: name,
			Type: InferColumn(t.Column(i, opt.SampleSize), opt),
		}
	}
	return Schema{Columns: cols}
}

// InferColumn classifies one column sample.
//
// Rules, first match wins:
//  1. every present value is an integer       -> INTEGER
//  2. every present value is numeric           -> FLOAT
//  3. every present value is a date            -> DATE
//  4. string or mixed values, longest <= bound -> BOUNDED_STRING(bound)
//     otherwise                                -> UNBOUNDED_TEXT
//  5. nothing present                          -> BOUNDED_STRING(bound)
//
// Missing cells never disqualify a type. A single non-date value is enough
// to keep a column out of DATE.
func InferColumn(sample []table.Cell, opt InferOptions) ColumnType {
	opt = opt.withDefaults()

	present := make([]string, 0, len(sample))
	for _, c := range sample {
		if c.Missing {
			continue
		}
		present = append(present, c.Raw)
	}

	kind := DetectKind(present)
	switch kind {
	case KindEmpty:
		return Varchar(opt.MaxVarchar)
	case KindInteger:
		return TypeInteger
	case KindFloating:
		return TypeFloat
	}

	if allDates(present, opt) {
		return TypeDate
	}

	if maxRuneLen(present) > opt.MaxVarchar {
		return TypeText
	}
	return Varchar(opt.MaxVarchar)
}

func allDates(values []string, opt InferOptions) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
		if opt.DateLayout != "" {
			if _, err := ParseDateLayout(v, opt.DateLayout); err != nil {
				return false
			}
			continue
		}
		if !IsDate(v, opt.DateMode) {
			return false
		}
	}
	return true
}

func maxRuneLen(values []string) int {
	n := 0
	for _, v := range values {
		if l := utf8.RuneCountInString(v); l > n {
			n = l
		}
	}
	return n
}
