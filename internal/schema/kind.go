package schema

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind is the coarse classification of a set of raw values.
type ValueKind int

const (
	// KindEmpty means there were no values to classify.
	KindEmpty ValueKind = iota
	// KindInteger means every value is a base-10 int64.
	KindInteger
	// KindFloating means every value is numeric and at least one is not an
	// integer.
	KindFloating
	// KindString means no value is numeric.
	KindString
	// KindMixed means numeric and non-numeric values are both present.
	KindMixed
)

func (k ValueKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInteger:
		return "integer"
	case KindFloating:
		return "floating"
	case KindString:
		return "string"
	case KindMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// DetectKind classifies non-missing raw values.
func DetectKind(values []string) ValueKind {
	if len(values) == 0 {
		return KindEmpty
	}
	var ints, floats, others int
	for _, v := range values {
		switch {
		case IsInt(v):
			ints++
		case IsFloat(v):
			floats++
		default:
			others++
		}
	}
	switch {
	case others == 0 && floats == 0:
		return KindInteger
	case others == 0:
		return KindFloating
	case ints+floats == 0:
		return KindString
	default:
		return KindMixed
	}
}

// IsInt reports whether s is a signed base-10 integer that fits in int64.
func IsInt(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

// IsFloat reports whether s is a finite decimal or scientific-notation number
// that is not an integer. NaN and Inf spellings are rejected.
func IsFloat(s string) bool {
	if IsInt(s) {
		return false
	}
	return IsNumber(s)
}

// IsNumber reports whether ParseNumber accepts s.
func IsNumber(s string) bool {
	_, err := ParseNumber(s)
	return err == nil
}

var errNotDecimal = errors.New("not a finite decimal number")

// ParseNumber parses a trimmed decimal or scientific-notation float64.
// Hex floats, NaN and Inf spellings are rejected.
func ParseNumber(s string) (float64, error) {
	v := strings.TrimSpace(s)
	if strings.ContainsAny(v, "xX_") {
		return 0, fmt.Errorf("parse number %q: %w", v, errNotDecimal)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parse number %q: %w", v, errNotDecimal)
	}
	return f, nil
}
