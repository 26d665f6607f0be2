package ddl

import (
	"fmt"
	"strings"

	"csvload/internal/schema"
)

// ColumnDef is one rendered column: an unquoted name and a dialect SQL type.
// Every imported column is nullable.
type ColumnDef struct {
	Name    string
	SQLType string
}

// TableDef holds the table name (optionally dotted, e.g. "dbo.titles") and
// its ordered columns. Quoting happens at render time.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// FromSchema maps every schema column through d.Types, preserving order.
func FromSchema(d Dialect, table string, s schema.Schema) (TableDef, error) {
	cols := make([]ColumnDef, 0, len(s.Columns))
	for _, c := range s.Columns {
		typ := d.Types(c.Type)
		if typ == "" {
			return TableDef{}, fmt.Errorf("%s ddl: no SQL type for column %s (%v)", d.Name, c.Name, c.Type)
		}
		cols = append(cols, ColumnDef{Name: c.Name, SQLType: typ})
	}
	return TableDef{FQN: strings.TrimSpace(table), Columns: cols}, nil
}
