package main

import (
	"fmt"
	"regexp"
	"strings"
)

// obIdent quotes an identifier for OceanBase/MySQL.
func obIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// obLiteral quotes a string literal for OceanBase/MySQL.
func obLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return "'" + s + "'"
}

var castSuffixRe = regexp.MustCompile(`::[A-Za-z0-9_ ]+(\[\])?$`)

// normalizeDefault rewrites a PostgreSQL column default for the target
// dialect. Returns "" when the default cannot or should not be carried over
// (sequence defaults are handled via AUTO_INCREMENT).
func normalizeDefault(col Column, targetType string) string {
	if col.Default == nil {
		return ""
	}
	expr := strings.TrimSpace(*col.Default)
	if expr == "" {
		return ""
	}

	lower := strings.ToLower(expr)
	if strings.Contains(lower, "nextval(") {
		return ""
	}

	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") {
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	// strip pg cast suffixes like 'x'::character varying
	expr = strings.TrimSpace(castSuffixRe.ReplaceAllString(expr, ""))
	lower = strings.ToLower(expr)

	if lower == "null" {
		return ""
	}

	if normalizeSourceType(col.DataType) == "boolean" {
		switch lower {
		case "true", "t", "1":
			return "1"
		case "false", "f", "0":
			return "0"
		}
	}

	switch lower {
	case "now()", "current_timestamp", "transaction_timestamp()", "statement_timestamp()":
		return "CURRENT_TIMESTAMP"
	}

	// re-quote string literals for the target; pg uses '' escaping too, so a
	// quoted literal can pass through after unquoting
	if len(expr) >= 2 && expr[0] == '\'' && expr[len(expr)-1] == '\'' {
		inner := strings.ReplaceAll(expr[1:len(expr)-1], "''", "'")
		return obLiteral(inner)
	}

	// TEXT/BLOB columns cannot carry literals as defaults in MySQL mode
	switch {
	case strings.HasPrefix(targetType, "TEXT"), strings.HasPrefix(targetType, "VARBINARY"):
		return ""
	}

	return expr
}

// generateCreateTable produces an idempotent CREATE TABLE statement for the
// non-ignored columns of a table, in source ordinal order. The PRIMARY KEY
// clause is built from the surviving PK columns only.
func generateCreateTable(t *Table) (string, error) {
	cols := t.DataColumns()
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s: all columns ignored", t.Name)
	}

	pkSet := make(map[string]bool)
	for _, pk := range t.SurvivingPrimaryKey() {
		pkSet[pk] = true
	}

	var defs []string
	for _, col := range cols {
		targetType, err := mapColumnType(col)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}

		autoInc := strings.HasSuffix(targetType, " AUTO_INCREMENT")
		if autoInc {
			targetType = strings.TrimSuffix(targetType, " AUTO_INCREMENT")
		}
		if isSerialColumn(col) {
			autoInc = true
		}
		// AUTO_INCREMENT requires the column to be part of a key
		if autoInc && !pkSet[col.Name] {
			autoInc = false
		}

		def := fmt.Sprintf("  %s %s", obIdent(col.Name), targetType)
		if !col.Nullable {
			def += " NOT NULL"
		}
		if autoInc {
			def += " AUTO_INCREMENT"
		} else if d := normalizeDefault(col, targetType); d != "" {
			def += " DEFAULT " + d
		}
		defs = append(defs, def)
	}

	if pks := t.SurvivingPrimaryKey(); len(pks) > 0 {
		quoted := make([]string, len(pks))
		for i, pk := range pks {
			quoted[i] = obIdent(pk)
		}
		defs = append(defs, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", obIdent(t.Name))
	b.WriteString(strings.Join(defs, ",\n"))
	b.WriteString("\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	return b.String(), nil
}

// generateCreateIndex produces a CREATE INDEX statement for a non-primary
// index. The caller is responsible for skipping indexes that touch ignored
// columns.
func generateCreateIndex(tableName string, idx Index) string {
	quoted := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		quoted[i] = obIdent(c)
	}
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, obIdent(idx.Name), obIdent(tableName), strings.Join(quoted, ", "))
}
