package schema

// FixedOptions configures the no-inference mapping.
type FixedOptions struct {
	// DateColumns become DATE. Defaults to ["date_added"].
	DateColumns []string
	// TextColumns become UNBOUNDED_TEXT. Defaults to ["cast"].
	TextColumns []string
	// MaxVarchar bounds every other column.
	MaxVarchar int
}

// Default fixed-mode column sets.
var (
	DefaultFixedDateColumns = []string{"date_added"}
	DefaultFixedTextColumns = []string{"cast"}
)

// Fixed maps columns without looking at the data: named date columns become
// DATE, named text columns UNBOUNDED_TEXT, everything else BOUNDED_STRING.
func Fixed(columns []string, opt FixedOptions) Schema {
	if opt.DateColumns == nil {
		opt.DateColumns = DefaultFixedDateColumns
	}
	if opt.TextColumns == nil {
		opt.TextColumns = DefaultFixedTextColumns
	}
	if opt.MaxVarchar <= 0 {
		opt.MaxVarchar = DefaultMaxVarchar
	}

	dates := toSet(opt.DateColumns)
	texts := toSet(opt.TextColumns)

	cols := make([]Column, len(columns))
	for i, name := range columns {
		typ := Varchar(opt.MaxVarchar)
		switch {
		case dates[name]:
			typ = TypeDate
		case texts[name]:
			typ = TypeText
		}
		cols[i] = Column{Name: name, Type: typ}
	}
	return Schema{Columns: cols}
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}
