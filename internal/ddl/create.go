// Package ddl renders the two statements an import needs: a CREATE TABLE for
// the inferred schema and the parameterized INSERT used for every row.
//
// Statements are rendered per Dialect. Identifiers are quoted by the dialect,
// a dotted table name has each segment quoted separately, and columns keep
// the order of the source file.
package ddl

import (
	"fmt"
	"strings"

	"csvload/internal/schema"
)

// CreateTable renders a create-if-absent statement for s.
func CreateTable(d Dialect, table string, s schema.Schema) (string, error) {
	def, err := FromSchema(d, table, s)
	if err != nil {
		return "", err
	}
	return BuildCreateTableSQL(d, def)
}

// BuildCreateTableSQL renders t. Most dialects produce
//
//	CREATE TABLE IF NOT EXISTS <table> (
//	  <col1> <TYPE>,
//	  ...
//	);
//
// while ObjectIDGuard dialects produce
//
//	IF OBJECT_ID(N'<table>', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE <table> (
//	    <col1> <TYPE>,
//	    ...
//	  );
//	END;
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}
		cols = append(cols, d.Quote(name)+" "+typ)
	}

	quoted := quoteFQN(d, fqn)
	if d.ObjectIDGuard {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
			strings.ReplaceAll(quoted, "'", "''"),
			quoted,
			strings.Join(cols, ",\n    "),
		), nil
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoted,
		strings.Join(cols, ",\n  "),
	), nil
}

// Insert renders INSERT INTO <table> (<c1>, ...) VALUES (<p1>, ...); with
// one placeholder per column in the given order.
func Insert(d Dialect, table string, columns []string) (string, error) {
	fqn := strings.TrimSpace(table)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		names[i] = d.Quote(c)
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		quoteFQN(d, fqn),
		strings.Join(names, ", "),
		strings.Join(marks, ", "),
	), nil
}

// quoteFQN quotes each segment of a dotted name; empty segments are dropped.
func quoteFQN(d Dialect, fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.Quote(p))
	}
	return strings.Join(out, ".")
}
