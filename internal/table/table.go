// Package table holds the in-memory tabular model produced by the decoder and
// consumed read-only by inference, coercion and the insert driver.
//
// Rows are stored positionally: Row[i] is the cell for Columns[i]. Column order
// is fixed when the Table is built and is never reordered downstream.
package table

import "fmt"

// Cell is one raw value from the input file. Missing is true for empty cells,
// null-equivalent tokens, and trailing cells absent from a short row; Raw is
// meaningless when Missing is set.
type Cell struct {
	Raw     string
	Missing bool
}

// Text returns a present cell holding s.
func Text(s string) Cell { return Cell{Raw: s} }

// Null returns a missing cell.
func Null() Cell { return Cell{Missing: true} }

// Row is an ordered slice of cells aligned with Table.Columns.
type Row []Cell

// Table is an ordered list of unique column names plus the decoded rows.
type Table struct {
	Columns []string
	Rows    []Row

	// Encoding is the IANA name of the text encoding that decoded the file.
	Encoding string

	// Fingerprint is a content hash of the raw input bytes.
	Fingerprint uint64

	// Skipped counts records dropped by the decoder (over-long rows).
	Skipped int

	index map[string]int
}

// New builds a Table from columns and rows. Column names must be unique.
func New(columns []string, rows []Row) (*Table, error) {
	t := &Table{Columns: columns, Rows: rows}
	if err := t.buildIndex(); err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("table: row %d has %d cells, want %d", i, len(r), len(columns))
		}
	}
	return t, nil
}

func (t *Table) buildIndex() error {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; dup {
			return fmt.Errorf("table: duplicate column %q", c)
		}
		t.index[c] = i
	}
	return nil
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t.index == nil {
		if err := t.buildIndex(); err != nil {
			return -1
		}
	}
	i, ok := t.index[name]
	if !ok {
		return -1
	}
	return i
}

// Value returns the cell of row r under column name. Unknown columns and
// out-of-range rows yield a missing cell.
func (t *Table) Value(r int, name string) Cell {
	i := t.ColumnIndex(name)
	if i < 0 || r < 0 || r >= len(t.Rows) {
		return Null()
	}
	return t.Rows[r][i]
}

// Column returns the cells of column i for the first n rows (all rows when n
// <= 0 or n exceeds the row count).
func (t *Table) Column(i, n int) []Cell {
	if n <= 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([]Cell, n)
	for r := 0; r < n; r++ {
		out[r] = t.Rows[r][i]
	}
	return out
}
