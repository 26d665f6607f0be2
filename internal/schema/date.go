package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateMode selects how ambiguous numeric dates are handled.
type DateMode int

const (
	// DateStrict rejects values whose day/month order cannot be decided,
	// e.g. 01/02/2020.
	DateStrict DateMode = iota
	// DateMonthFirst reads ambiguous numeric dates as month/day.
	DateMonthFirst
)

// ParseDateMode maps a config string to a DateMode. Unknown values select
// DateStrict.
func ParseDateMode(s string) DateMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us", "mdy", "month_first":
		return DateMonthFirst
	default:
		return DateStrict
	}
}

// ParseDate parses s with the general date parser. Plain numbers are never
// dates, so numeric identifiers or years do not turn a column into DATE.
func ParseDate(s string, mode DateMode) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("parse date: empty value")
	}
	if IsNumber(v) {
		return time.Time{}, fmt.Errorf("parse date %q: bare number", v)
	}
	var (
		t   time.Time
		err error
	)
	switch mode {
	case DateMonthFirst:
		t, err = dateparse.ParseAny(v)
	default:
		t, err = dateparse.ParseStrict(v)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", v, err)
	}
	return t, nil
}

// IsDate reports whether ParseDate accepts s.
func IsDate(s string, mode DateMode) bool {
	_, err := ParseDate(s, mode)
	return err == nil
}

// DefaultFixedDateLayout is the layout used for DATE columns in fixed mode
// ("September 25, 2021").
const DefaultFixedDateLayout = "January 2, 2006"

// ParseDateLayout parses s with one explicit layout after trimming.
func ParseDateLayout(s, layout string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q with layout %q: %w", s, layout, err)
	}
	return t, nil
}
