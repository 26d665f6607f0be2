package schema

import "testing"

func TestDetectKind(t *testing.T) {
	tests := []struct {
		in   []string
		want ValueKind
	}{
		{nil, KindEmpty},
		{[]string{"1", "2", " 3 "}, KindInteger},
		{[]string{"1", "2.5"}, KindFloating},
		{[]string{"1.0"}, KindFloating},
		{[]string{"a", "b"}, KindString},
		{[]string{"1", "b"}, KindMixed},
		{[]string{"NaN"}, KindString},
		{[]string{"99999999999999999999"}, KindFloating},
		{[]string{"0x1p3"}, KindString},
		{[]string{"1", "0x1p3"}, KindMixed},
		{[]string{"1_000.5"}, KindString},
	}
	for _, tc := range tests {
		if got := DetectKind(tc.in); got != tc.want {
			t.Errorf("DetectKind(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{" 20.5 ", 20.5, true},
		{"-1e3", -1000, true},
		{"7", 7, true},
		{"0x1p3", 0, false},
		{"0X10", 0, false},
		{"inf", 0, false},
		{"-Infinity", 0, false},
		{"NaN", 0, false},
		{"1e400", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, err := ParseNumber(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("ParseNumber(%q) = (%v, %v), want ok=%v %v", tc.in, got, err, tc.ok, tc.want)
		}
		if IsNumber(tc.in) != tc.ok {
			t.Errorf("IsNumber(%q) = %v, want %v", tc.in, !tc.ok, tc.ok)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(" September 25, 2021 ", DateStrict)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got.Year() != 2021 || got.Month() != 9 || got.Day() != 25 {
		t.Fatalf("got %v", got)
	}

	for _, bad := range []string{"", "hello", "20210925", "2021", "3.14"} {
		if _, err := ParseDate(bad, DateStrict); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestParseDate_AmbiguousNeedsMonthFirst(t *testing.T) {
	if _, err := ParseDate("01/02/2020", DateStrict); err == nil {
		t.Fatalf("strict mode should reject ambiguous 01/02/2020")
	}
	got, err := ParseDate("01/02/2020", DateMonthFirst)
	if err != nil {
		t.Fatalf("month-first: %v", err)
	}
	if got.Month() != 1 || got.Day() != 2 {
		t.Fatalf("got %v, want Jan 2", got)
	}
}

func TestParseDateMode(t *testing.T) {
	if ParseDateMode("US") != DateMonthFirst {
		t.Fatalf("us should map to DateMonthFirst")
	}
	if ParseDateMode("") != DateStrict || ParseDateMode("whatever") != DateStrict {
		t.Fatalf("default should be DateStrict")
	}
}

func TestParseDateLayout(t *testing.T) {
	got, err := ParseDateLayout(" March 1, 2020", DefaultFixedDateLayout)
	if err != nil {
		t.Fatalf("ParseDateLayout: %v", err)
	}
	if got.Format("2006-01-02") != "2020-03-01" {
		t.Fatalf("got %v", got)
	}
	if _, err := ParseDateLayout("2020-03-01", DefaultFixedDateLayout); err == nil {
		t.Fatalf("ISO date should not match the fixed layout")
	}
}
