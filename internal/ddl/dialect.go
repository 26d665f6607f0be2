package ddl

import (
	"fmt"
	"strings"

	"csvload/internal/schema"
)

// Dialect captures the few places where supported databases differ:
// identifier quoting, bind placeholders, the storage type vocabulary and
// how "create if absent" is spelled.
type Dialect struct {
	Name string
	// Quote quotes one identifier segment.
	Quote func(id string) string
	// Placeholder returns the bind marker for the 1-based parameter i.
	Placeholder func(i int) string
	// Types maps a storage type to a column type.
	Types func(t schema.ColumnType) string
	// ObjectIDGuard wraps CREATE TABLE in IF OBJECT_ID(...) IS NULL instead of
	// using CREATE TABLE IF NOT EXISTS.
	ObjectIDGuard bool
}

var (
	// Generic emits the portable vocabulary and leaves identifiers unquoted.
	Generic = Dialect{
		Name:        "generic",
		Quote:       func(id string) string { return id },
		Placeholder: question,
		Types:       typeMap("INT", "FLOAT", "DATE", "VARCHAR(%d)", "TEXT"),
	}

	MySQL = Dialect{
		Name:        "mysql",
		Quote:       quoteWith("`"),
		Placeholder: question,
		Types:       typeMap("BIGINT", "DOUBLE", "DATE", "VARCHAR(%d)", "LONGTEXT"),
	}

	Postgres = Dialect{
		Name:        "postgres",
		Quote:       quoteWith(`"`),
		Placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
		Types:       typeMap("BIGINT", "DOUBLE PRECISION", "DATE", "VARCHAR(%d)", "TEXT"),
	}

	// MSSQL has no CREATE TABLE IF NOT EXISTS.
	MSSQL = Dialect{
		Name:          "mssql",
		Quote:         quoteBracket,
		Placeholder:   func(i int) string { return fmt.Sprintf("@p%d", i) },
		Types:         typeMap("BIGINT", "FLOAT", "DATE", "NVARCHAR(%d)", "NVARCHAR(MAX)"),
		ObjectIDGuard: true,
	}

	// SQLite stores dates as ISO-8601 TEXT.
	SQLite = Dialect{
		Name:        "sqlite",
		Quote:       quoteWith(`"`),
		Placeholder: question,
		Types:       typeMap("INTEGER", "REAL", "TEXT", "TEXT", "TEXT"),
	}
)

var dialects = map[string]Dialect{
	"generic":    Generic,
	"mysql":      MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"mssql":      MSSQL,
	"sqlserver":  MSSQL,
	"sqlite":     SQLite,
}

// Lookup returns the dialect registered under name (case-insensitive).
func Lookup(name string) (Dialect, bool) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// typeMap builds a Types func. varchar may contain one %d for the length;
// a verb-less varchar (SQLite TEXT) is used as-is.
func typeMap(integer, float, date, varchar, text string) func(schema.ColumnType) string {
	return func(t schema.ColumnType) string {
		switch t.Kind {
		case schema.Integer:
			return integer
		case schema.Float:
			return float
		case schema.Date:
			return date
		case schema.BoundedString:
			if strings.Contains(varchar, "%d") {
				return fmt.Sprintf(varchar, t.Length)
			}
			return varchar
		case schema.UnboundedText:
			return text
		}
		return ""
	}
}

func question(int) string { return "?" }

// quoteWith quotes with q on both sides, doubling any embedded q.
func quoteWith(q string) func(string) string {
	return func(id string) string {
		return q + strings.ReplaceAll(id, q, q+q) + q
	}
}

// quoteBracket quotes for SQL Server, escaping closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteBracket(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
