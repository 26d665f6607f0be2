package coerce

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"csvload/internal/schema"
	"csvload/internal/table"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValue_FloatColumn(t *testing.T) {
	c := New(DefaultPolicy())
	want := []float64{10, 20.5, 30}
	for i, raw := range []string{"10", "20.5", "30"} {
		v, err := c.Value(schema.TypeFloat, table.Text(raw))
		if err != nil {
			t.Fatalf("Value(%q): %v", raw, err)
		}
		f, ok := v.(float64)
		if !ok || f != want[i] {
			t.Fatalf("Value(%q) = %#v, want %v", raw, v, want[i])
		}
	}
}

// Values inference would never call FLOAT are rejected here too.
func TestValue_FloatRejectsNonDecimal(t *testing.T) {
	for _, raw := range []string{"inf", "-Infinity", "NaN", "0x1p3", "1e400"} {
		if _, err := New(DefaultPolicy()).Value(schema.TypeFloat, table.Text(raw)); err == nil {
			t.Errorf("Value(%q) should fail", raw)
		}
		v, err := New(Policy{OnNumericError: Null}).Value(schema.TypeFloat, table.Text(raw))
		if err != nil || v != nil {
			t.Errorf("Value(%q) with Null policy = (%#v, %v), want (nil, nil)", raw, v, err)
		}
	}
}

func TestValue_DateColumn(t *testing.T) {
	c := New(DefaultPolicy())
	in := []table.Cell{table.Text("September 25, 2021"), table.Null(), table.Text("March 1, 2020")}
	want := []any{date(2021, 9, 25), nil, date(2020, 3, 1)}

	for i, cell := range in {
		v, err := c.Value(schema.TypeDate, cell)
		if err != nil {
			t.Fatalf("Value(%+v): %v", cell, err)
		}
		if want[i] == nil {
			if v != nil {
				t.Fatalf("missing cell = %#v, want nil", v)
			}
			continue
		}
		got, ok := v.(time.Time)
		if !ok || !got.Equal(want[i].(time.Time)) {
			t.Fatalf("Value(%q) = %#v, want %v", cell.Raw, v, want[i])
		}
	}
}

func TestValue_DateTruncatesTime(t *testing.T) {
	v, err := New(DefaultPolicy()).Value(schema.TypeDate, table.Text("2021-09-25 18:30:00"))
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if got := v.(time.Time); !got.Equal(date(2021, 9, 25)) {
		t.Fatalf("got %v, want midnight UTC", got)
	}
}

func TestValue_QuotesReplaced(t *testing.T) {
	c := New(DefaultPolicy())
	for _, typ := range []schema.ColumnType{schema.Varchar(255), schema.TypeText} {
		v, err := c.Value(typ, table.Text(`He said "hi"`))
		if err != nil {
			t.Fatalf("Value: %v", err)
		}
		if v != `He said 'hi'` {
			t.Fatalf("%v: got %#v", typ, v)
		}
	}
}

func TestText_Idempotent(t *testing.T) {
	for _, s := range []string{"plain", "it's", `a "b" c`, ""} {
		once := Text(s)
		if twice := Text(once); twice != once {
			t.Fatalf("Text not idempotent for %q: %q vs %q", s, once, twice)
		}
	}
}

// NULL must reach the driver as nil, never as a placeholder string.
func TestValue_MissingIsNilForEveryType(t *testing.T) {
	c := New(Policy{OnNumericError: Null, OnDateError: Null})
	types := []schema.ColumnType{
		schema.TypeInteger, schema.TypeFloat, schema.TypeDate, schema.Varchar(10), schema.TypeText,
	}
	for _, typ := range types {
		v, err := c.Value(typ, table.Null())
		if err != nil || v != nil {
			t.Fatalf("%v: got (%#v, %v), want (nil, nil)", typ, v, err)
		}
		if s, ok := v.(string); ok && (s == "None" || s == "NaN") {
			t.Fatalf("%v bound %q", typ, s)
		}
	}
}

func TestValue_BadDateIsNullByDefault(t *testing.T) {
	for name, p := range map[string]Policy{"DefaultPolicy": DefaultPolicy(), "zero": {}} {
		v, err := New(p).Value(schema.TypeDate, table.Text("someday"))
		if err != nil || v != nil {
			t.Fatalf("%s: got (%#v, %v), want (nil, nil)", name, v, err)
		}
	}
}

func TestNew_ZeroPolicyMatchesDefault(t *testing.T) {
	if got, want := New(Policy{}).policy, New(DefaultPolicy()).policy; got != want {
		t.Fatalf("zero policy resolves to %+v, want %+v", got, want)
	}
	if _, err := New(Policy{}).Value(schema.TypeInteger, table.Text("seven")); err == nil {
		t.Fatalf("bad integer with zero policy should fail")
	}
}

func TestValue_BadNumberFailsByDefault(t *testing.T) {
	c := New(DefaultPolicy())
	for _, typ := range []schema.ColumnType{schema.TypeInteger, schema.TypeFloat} {
		_, err := c.Value(typ, table.Text("n/a-ish"))
		var ce *Error
		if !errors.As(err, &ce) {
			t.Fatalf("%v: want *Error, got %v", typ, err)
		}
		if ce.Kind != typ.Kind || ce.Value != "n/a-ish" {
			t.Fatalf("error = %+v", ce)
		}
		var ne *strconv.NumError
		if !errors.As(err, &ne) {
			t.Fatalf("cause should be *strconv.NumError, got %v", ce.Err)
		}
	}
}

func TestValue_PolicyOverrides(t *testing.T) {
	c := New(Policy{OnNumericError: Null, OnDateError: Fail})

	v, err := c.Value(schema.TypeInteger, table.Text("1.5"))
	if err != nil || v != nil {
		t.Fatalf("integer with Null policy: (%#v, %v)", v, err)
	}
	if _, err := c.Value(schema.TypeDate, table.Text("someday")); err == nil {
		t.Fatalf("date with Fail policy should error")
	}
}

func TestValue_FixedDateLayout(t *testing.T) {
	c := New(Policy{OnDateError: Null, DateLayout: schema.DefaultFixedDateLayout})

	v, _ := c.Value(schema.TypeDate, table.Text("March 1, 2020"))
	if got, ok := v.(time.Time); !ok || !got.Equal(date(2020, 3, 1)) {
		t.Fatalf("got %#v", v)
	}
	v, err := c.Value(schema.TypeDate, table.Text("2020-03-01"))
	if err != nil || v != nil {
		t.Fatalf("non-matching layout: (%#v, %v), want NULL", v, err)
	}
}

func TestValue_IntegerTrimmed(t *testing.T) {
	v, err := New(DefaultPolicy()).Value(schema.TypeInteger, table.Text(" 42 "))
	if err != nil || v != int64(42) {
		t.Fatalf("got (%#v, %v)", v, err)
	}
}

func TestRow(t *testing.T) {
	s := schema.Schema{Columns: []schema.Column{
		{Name: "id", Type: schema.TypeInteger},
		{Name: "title", Type: schema.Varchar(255)},
		{Name: "added", Type: schema.TypeDate},
	}}
	c := New(DefaultPolicy())

	got, err := c.Row(s, table.Row{table.Text("7"), table.Text(`"x"`), table.Text("bogus")}, 3)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if got[0] != int64(7) || got[1] != "'x'" || got[2] != nil {
		t.Fatalf("Row = %#v", got)
	}

	_, err = c.Row(s, table.Row{table.Text("seven"), table.Null(), table.Null()}, 9)
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("want *Error, got %v", err)
	}
	if ce.Row != 9 || ce.Column != "id" {
		t.Fatalf("error location = row %d column %q", ce.Row, ce.Column)
	}

	if _, err := c.Row(s, table.Row{table.Null()}, 1); !errors.Is(err, ErrColumnCount) {
		t.Fatalf("want ErrColumnCount, got %v", err)
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction("NULL"); err != nil || a != Null {
		t.Fatalf("got (%v, %v)", a, err)
	}
	if a, err := ParseAction(""); err != nil || a != Default {
		t.Fatalf("got (%v, %v)", a, err)
	}
	if a, err := ParseAction(" fail "); err != nil || a != Fail {
		t.Fatalf("got (%v, %v)", a, err)
	}
	if _, err := ParseAction("skip"); err == nil {
		t.Fatalf("unknown action should fail")
	}
}
