package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// errUnsupportedType marks a source type with no mapping rule. Schema
// migration for the table fails; the run continues with other tables.
var errUnsupportedType = errors.New("unsupported source type")

// normalizeSourceType collapses information_schema spellings to the short
// type names used throughout the mapping table.
func normalizeSourceType(dataType string) string {
	t := strings.ToLower(strings.TrimSpace(dataType))
	switch t {
	case "character varying":
		return "varchar"
	case "character":
		return "char"
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone", "time without time zone":
		return "time"
	case "double precision":
		return "double"
	case "numeric":
		return "decimal"
	case "bool":
		return "boolean"
	case "int", "int4":
		return "integer"
	case "int2":
		return "smallint"
	case "int8":
		return "bigint"
	case "float4":
		return "real"
	case "float8":
		return "double"
	case "user-defined":
		return "enum"
	}
	return t
}

// mapColumnType returns the OceanBase (MySQL mode) type for a PostgreSQL
// column. The mapping is a fixed table; unknown types are an error rather
// than a silent default.
func mapColumnType(col Column) (string, error) {
	switch normalizeSourceType(col.DataType) {
	case "integer":
		return "INT", nil
	case "smallint":
		return "SMALLINT", nil
	case "bigint":
		return "BIGINT", nil
	case "boolean":
		return "TINYINT(1)", nil
	case "text":
		return "TEXT", nil
	case "varchar":
		// varchar without a declared length has no MySQL equivalent
		if col.CharMaxLen <= 0 {
			return "TEXT", nil
		}
		return fmt.Sprintf("VARCHAR(%d)", col.CharMaxLen), nil
	case "char":
		if col.CharMaxLen <= 0 {
			return "CHAR(1)", nil
		}
		return fmt.Sprintf("CHAR(%d)", col.CharMaxLen), nil
	case "date":
		return "DATE", nil
	case "time":
		return "TIME", nil
	case "timestamp", "timestamptz":
		// time-zone information is dropped; values are normalized to UTC
		return "TIMESTAMP", nil
	case "uuid":
		return "VARCHAR(36)", nil
	case "decimal":
		p, s := col.Precision, col.Scale
		if p <= 0 {
			p = 10
		}
		return fmt.Sprintf("DECIMAL(%d,%d)", p, s), nil
	case "real":
		return "FLOAT", nil
	case "double":
		return "DOUBLE", nil
	case "serial":
		return "INT AUTO_INCREMENT", nil
	case "bigserial":
		return "BIGINT AUTO_INCREMENT", nil
	case "bytea":
		return "VARBINARY(65535)", nil
	case "enum":
		return "VARCHAR(255)", nil
	default:
		return "", fmt.Errorf("%w %q (udt=%q)", errUnsupportedType, col.DataType, col.UDTName)
	}
}

// shouldIgnoreColumn reports whether a column is excluded from DDL and data
// movement. Patterns match as substrings of the lower-cased declared type or
// the lower-cased underlying type name; udt names starting with "_" are the
// array family and are dropped whenever any pattern is configured.
func shouldIgnoreColumn(col Column, ignoreTypes []string) bool {
	dataType := strings.ToLower(col.DataType)
	udtName := strings.ToLower(col.UDTName)

	for _, pat := range ignoreTypes {
		pat = strings.ToLower(pat)
		if pat == "" {
			continue
		}
		if strings.Contains(dataType, pat) || strings.Contains(udtName, pat) {
			return true
		}
		if strings.HasPrefix(udtName, "_") {
			return true
		}
	}
	return false
}

// isSerialColumn reports whether a column is serial-derived: either declared
// serial/bigserial or an integer with a sequence default.
func isSerialColumn(col Column) bool {
	switch normalizeSourceType(col.DataType) {
	case "serial", "bigserial":
		return true
	}
	if col.Default != nil && strings.Contains(strings.ToLower(*col.Default), "nextval(") {
		return true
	}
	return false
}

// convertValue converts a single PostgreSQL value to its OceanBase
// equivalent. nil passes through unconditionally, regardless of type.
func convertValue(val any, sourceType string) (any, error) {
	if val == nil {
		return nil, nil
	}

	switch normalizeSourceType(sourceType) {
	case "boolean":
		switch v := val.(type) {
		case bool:
			if v {
				return int64(1), nil
			}
			return int64(0), nil
		case int64:
			return v, nil
		}
		return val, nil

	case "uuid":
		switch v := val.(type) {
		case [16]byte:
			return formatUUID(v), nil
		case []byte:
			if len(v) == 16 {
				var b [16]byte
				copy(b[:], v)
				return formatUUID(b), nil
			}
			return string(v), nil
		case string:
			return v, nil
		}
		return fmt.Sprintf("%v", val), nil

	case "decimal":
		// pgx scans numeric into pgtype.Numeric; render it as plain decimal
		// text so the MySQL driver ships an exact literal
		if n, ok := val.(pgtype.Numeric); ok {
			return numericString(n)
		}
		return val, nil

	case "timestamp", "timestamptz":
		if t, ok := val.(time.Time); ok {
			return t.UTC(), nil
		}
		return val, nil

	default:
		return val, nil
	}
}

func formatUUID(b [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// numericString renders a pgtype.Numeric as a plain decimal string, without
// the e-notation of its text wire form.
func numericString(n pgtype.Numeric) (any, error) {
	if !n.Valid {
		return nil, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, fmt.Errorf("numeric value %v has no decimal representation", n)
	}

	digits := n.Int.String()
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	var s string
	switch exp := int(n.Exp); {
	case exp >= 0:
		s = digits + strings.Repeat("0", exp)
	case len(digits) > -exp:
		point := len(digits) + exp
		s = digits[:point] + "." + digits[point:]
	default:
		s = "0." + strings.Repeat("0", -exp-len(digits)) + digits
	}
	if neg {
		s = "-" + s
	}
	return s, nil
}
