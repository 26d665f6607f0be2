// Package schema assigns one storage type to every column of a decoded table.
//
// Inference examines a bounded sample of each column and picks, in order:
// INTEGER, FLOAT, DATE, then a bounded or unbounded string type. A column is
// DATE only when every non-missing sampled value is a date. Fixed mode skips
// inference entirely and uses a hardcoded mapping.
package schema

import "fmt"

// Kind is one of the closed set of storage types.
type Kind int

// The zero Kind is invalid.
const (
	Integer Kind = iota + 1
	Float
	Date
	BoundedString
	UnboundedText
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case Date:
		return "DATE"
	case BoundedString:
		return "BOUNDED_STRING"
	case UnboundedText:
		return "UNBOUNDED_TEXT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DefaultMaxVarchar is the bound used for BOUNDED_STRING columns.
const DefaultMaxVarchar = 255

// ColumnType is a storage type. Length is only meaningful for BoundedString.
type ColumnType struct {
	Kind   Kind
	Length int
}

func (t ColumnType) String() string {
	if t.Kind == BoundedString {
		return fmt.Sprintf("BOUNDED_STRING(%d)", t.Length)
	}
	return t.Kind.String()
}

// Convenience constructors.
var (
	TypeInteger = ColumnType{Kind: Integer}
	TypeFloat   = ColumnType{Kind: Float}
	TypeDate    = ColumnType{Kind: Date}
	TypeText    = ColumnType{Kind: UnboundedText}
)

// Varchar returns BOUNDED_STRING(n).
func Varchar(n int) ColumnType { return ColumnType{Kind: BoundedString, Length: n} }

// Column pairs a column name with its storage type.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the column→type mapping for one import, ordered like the table.
type Schema struct {
	Columns []Column
}

// Type returns the storage type of name.
func (s Schema) Type(name string) (ColumnType, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return ColumnType{}, false
}

// Names returns column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}
