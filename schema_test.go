package main

import (
	"context"
	"strings"
	"testing"
)

func TestMigrateSchema(t *testing.T) {
	tgt := newFakeTarget()
	schema := &Schema{Tables: []Table{*testUsersTable()}}

	summary := migrateSchema(context.Background(), tgt, schema)

	if len(summary.Success) != 1 || len(summary.Failed) != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(tgt.ddl) != 1 {
		t.Fatalf("ddl statements = %d, want 1", len(tgt.ddl))
	}
	if !strings.HasPrefix(tgt.ddl[0], "CREATE TABLE IF NOT EXISTS `test_users`") {
		t.Errorf("unexpected ddl: %s", tgt.ddl[0])
	}
}

func TestMigrateSchema_ContinuesPastFailure(t *testing.T) {
	tgt := newFakeTarget()

	// first table has every column ignored and cannot be created
	broken := Table{
		Name: "only_json",
		Columns: []Column{
			{Name: "payload", DataType: "jsonb", UDTName: "jsonb", OrdinalPos: 1, Ignored: true},
		},
	}
	schema := &Schema{Tables: []Table{broken, *testUsersTable()}}

	summary := migrateSchema(context.Background(), tgt, schema)

	if len(summary.Failed) != 1 || summary.Failed[0].Table != "only_json" {
		t.Fatalf("expected only_json to fail, summary = %+v", summary)
	}
	if len(summary.Success) != 1 || summary.Success[0].Table != "test_users" {
		t.Fatalf("later tables must still be created, summary = %+v", summary)
	}
}

func TestCreateIndexes(t *testing.T) {
	tgt := newFakeTarget()

	table := testUsersTable()
	table.Indexes = []Index{
		{Name: "idx_users_username", Columns: []string{"username"}, Unique: true},
		{Name: "idx_users_tags", Columns: []string{"tags"}},    // ignored column
		{Name: "idx_users_lower_username", Columns: []string{}}, // expression index
	}
	schema := &Schema{Tables: []Table{*table}}

	migrateSchema(context.Background(), tgt, schema)

	var indexDDL []string
	for _, ddl := range tgt.ddl {
		if strings.Contains(ddl, "INDEX") {
			indexDDL = append(indexDDL, ddl)
		}
	}
	if len(indexDDL) != 1 {
		t.Fatalf("index ddl = %v, want only the username index", indexDDL)
	}
	if !strings.Contains(indexDDL[0], "UNIQUE INDEX `idx_users_username`") {
		t.Errorf("unexpected index ddl: %s", indexDDL[0])
	}
}

func TestIntrospectTables(t *testing.T) {
	src, _ := usersSchema(nil)
	src.tables["audit_log"] = &Table{
		Name: "audit_log",
		Columns: []Column{
			{Name: "id", DataType: "bigint", UDTName: "int8", OrdinalPos: 1},
		},
		PrimaryKey: []string{"id"},
	}
	src.rows["audit_log"] = nil

	cfg := testMigrationConfig(1000, 1, 0)
	cfg.Migration.ExcludeTables = []string{"audit_log"}

	schema, err := introspectTables(context.Background(), src, cfg)
	if err != nil {
		t.Fatalf("introspectTables: %v", err)
	}
	if len(schema.Tables) != 1 || schema.Tables[0].Name != "test_users" {
		t.Errorf("schema tables = %+v", schema.Tables)
	}
}
