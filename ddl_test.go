package main

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

// testUsersTable mirrors a typical source table: serial PK, required
// varchar, plus json/array columns that fall under the default ignore set.
func testUsersTable() *Table {
	return &Table{
		Schema: "public",
		Name:   "test_users",
		Columns: []Column{
			{Name: "id", DataType: "integer", UDTName: "int4", OrdinalPos: 1,
				Default: strPtr("nextval('test_users_id_seq'::regclass)"), IsPrimary: true},
			{Name: "username", DataType: "character varying", UDTName: "varchar",
				CharMaxLen: 100, OrdinalPos: 2},
			{Name: "profile_data", DataType: "jsonb", UDTName: "jsonb",
				Nullable: true, OrdinalPos: 3, Ignored: true},
			{Name: "tags", DataType: "ARRAY", UDTName: "_text",
				Nullable: true, OrdinalPos: 4, Ignored: true},
		},
		PrimaryKey: []string{"id"},
	}
}

func TestGenerateCreateTable(t *testing.T) {
	ddl, err := generateCreateTable(testUsersTable())
	if err != nil {
		t.Fatalf("generateCreateTable() error: %v", err)
	}

	if !strings.HasPrefix(ddl, "CREATE TABLE IF NOT EXISTS `test_users` (") {
		t.Errorf("DDL should be idempotent CREATE TABLE IF NOT EXISTS, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, "`id` INT NOT NULL AUTO_INCREMENT") {
		t.Errorf("serial PK should become INT AUTO_INCREMENT, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, "`username` VARCHAR(100) NOT NULL") {
		t.Errorf("varchar(100) NOT NULL missing, got:\n%s", ddl)
	}
	if strings.Contains(ddl, "profile_data") || strings.Contains(ddl, "tags") {
		t.Errorf("ignored columns must not appear in DDL, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, "PRIMARY KEY (`id`)") {
		t.Errorf("PRIMARY KEY clause missing, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4") {
		t.Errorf("engine suffix missing, got:\n%s", ddl)
	}
	// nextval defaults are replaced by AUTO_INCREMENT, never carried over
	if strings.Contains(ddl, "nextval") {
		t.Errorf("sequence default leaked into DDL:\n%s", ddl)
	}
}

func TestGenerateCreateTable_IgnoredPKColumn(t *testing.T) {
	table := &Table{
		Name: "events",
		Columns: []Column{
			{Name: "id", DataType: "uuid", UDTName: "uuid", OrdinalPos: 1, IsPrimary: true},
			{Name: "payload", DataType: "jsonb", UDTName: "jsonb", OrdinalPos: 2,
				IsPrimary: true, Ignored: true, Nullable: true},
			{Name: "created_at", DataType: "timestamp with time zone", UDTName: "timestamptz", OrdinalPos: 3},
		},
		PrimaryKey: []string{"id", "payload"},
	}

	ddl, err := generateCreateTable(table)
	if err != nil {
		t.Fatalf("generateCreateTable() error: %v", err)
	}
	// the key is re-derived from surviving columns
	if !strings.Contains(ddl, "PRIMARY KEY (`id`)") {
		t.Errorf("PK should be rebuilt from non-ignored columns, got:\n%s", ddl)
	}
	if strings.Contains(ddl, "payload") {
		t.Errorf("ignored PK column must not appear anywhere, got:\n%s", ddl)
	}
}

func TestGenerateCreateTable_FullyIgnoredPK(t *testing.T) {
	table := &Table{
		Name: "blobs",
		Columns: []Column{
			{Name: "doc", DataType: "jsonb", UDTName: "jsonb", OrdinalPos: 1,
				IsPrimary: true, Ignored: true},
			{Name: "note", DataType: "text", UDTName: "text", Nullable: true, OrdinalPos: 2},
		},
		PrimaryKey: []string{"doc"},
	}

	ddl, err := generateCreateTable(table)
	if err != nil {
		t.Fatalf("generateCreateTable() error: %v", err)
	}
	if strings.Contains(ddl, "PRIMARY KEY") {
		t.Errorf("fully ignored PK should produce no PK clause, got:\n%s", ddl)
	}
}

func TestGenerateCreateTable_AllColumnsIgnored(t *testing.T) {
	table := &Table{
		Name: "junk",
		Columns: []Column{
			{Name: "doc", DataType: "jsonb", UDTName: "jsonb", Ignored: true},
		},
	}
	if _, err := generateCreateTable(table); err == nil {
		t.Fatal("expected error when every column is ignored")
	}
}

func TestGenerateCreateTable_UnsupportedType(t *testing.T) {
	table := &Table{
		Name: "geo",
		Columns: []Column{
			{Name: "shape", DataType: "geometry", UDTName: "geometry"},
		},
	}
	if _, err := generateCreateTable(table); err == nil {
		t.Fatal("expected unsupported-type error")
	}
}

func TestNormalizeDefault(t *testing.T) {
	tests := []struct {
		name       string
		col        Column
		targetType string
		want       string
	}{
		{"none", Column{DataType: "integer"}, "INT", ""},
		{"numeric literal", Column{DataType: "integer", Default: strPtr("0")}, "INT", "0"},
		{"boolean true", Column{DataType: "boolean", Default: strPtr("true")}, "TINYINT(1)", "1"},
		{"boolean false", Column{DataType: "boolean", Default: strPtr("false")}, "TINYINT(1)", "0"},
		{"now()", Column{DataType: "timestamp with time zone", Default: strPtr("now()")}, "TIMESTAMP", "CURRENT_TIMESTAMP"},
		{"CURRENT_TIMESTAMP", Column{DataType: "timestamp without time zone", Default: strPtr("CURRENT_TIMESTAMP")}, "TIMESTAMP", "CURRENT_TIMESTAMP"},
		{"string with cast", Column{DataType: "character varying", Default: strPtr("'active'::character varying")}, "VARCHAR(20)", "'active'"},
		{"string with quote", Column{DataType: "text", Default: strPtr("'it''s'::text")}, "VARCHAR(20)", "'it''s'"},
		{"nextval suppressed", Column{DataType: "integer", Default: strPtr("nextval('s'::regclass)")}, "INT", ""},
		{"null literal", Column{DataType: "text", Default: strPtr("NULL")}, "TEXT", ""},
		{"text literal dropped", Column{DataType: "text", Default: strPtr("some_func()")}, "TEXT", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeDefault(tt.col, tt.targetType); got != tt.want {
				t.Errorf("normalizeDefault(%+v) = %q, want %q", tt.col, got, tt.want)
			}
		})
	}
}

func TestGenerateCreateTable_DefaultClause(t *testing.T) {
	table := &Table{
		Name: "accounts",
		Columns: []Column{
			{Name: "id", DataType: "bigint", UDTName: "int8", OrdinalPos: 1, IsPrimary: true},
			{Name: "state", DataType: "character varying", UDTName: "varchar", CharMaxLen: 20,
				OrdinalPos: 2, Default: strPtr("'active'::character varying")},
			{Name: "enabled", DataType: "boolean", UDTName: "bool", OrdinalPos: 3,
				Default: strPtr("true")},
		},
		PrimaryKey: []string{"id"},
	}

	ddl, err := generateCreateTable(table)
	if err != nil {
		t.Fatalf("generateCreateTable() error: %v", err)
	}
	if !strings.Contains(ddl, "`state` VARCHAR(20) NOT NULL DEFAULT 'active'") {
		t.Errorf("string default not normalized, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, "`enabled` TINYINT(1) NOT NULL DEFAULT 1") {
		t.Errorf("boolean default not normalized, got:\n%s", ddl)
	}
}

func TestGenerateCreateIndex(t *testing.T) {
	got := generateCreateIndex("users", Index{Name: "users_email_key", Columns: []string{"email"}, Unique: true})
	want := "CREATE UNIQUE INDEX `users_email_key` ON `users` (`email`)"
	if got != want {
		t.Errorf("generateCreateIndex() = %q, want %q", got, want)
	}

	got = generateCreateIndex("users", Index{Name: "idx_users_name", Columns: []string{"last_name", "first_name"}})
	want = "CREATE INDEX `idx_users_name` ON `users` (`last_name`, `first_name`)"
	if got != want {
		t.Errorf("generateCreateIndex() = %q, want %q", got, want)
	}
}

func TestObIdent(t *testing.T) {
	if got := obIdent("plain"); got != "`plain`" {
		t.Errorf("obIdent(plain) = %q", got)
	}
	if got := obIdent("we`ird"); got != "`we``ird`" {
		t.Errorf("obIdent(backtick) = %q", got)
	}
}
