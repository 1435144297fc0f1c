package main

import (
	"context"
	"fmt"
	"log"
)

// migrateSchema creates the target table (and its secondary indexes) for
// every introspected table. A failing table is recorded and skipped; the
// phase never aborts the run.
func migrateSchema(ctx context.Context, target TargetClient, schema *Schema) *Summary {
	summary := &Summary{}

	for i := range schema.Tables {
		t := &schema.Tables[i]

		if ignored := t.IgnoredColumnNames(); len(ignored) > 0 {
			log.Printf("  %s: ignoring columns %v", t.Name, ignored)
		}

		ddl, err := generateCreateTable(t)
		if err != nil {
			log.Printf("  %s: schema migration failed: %v", t.Name, err)
			summary.add(TableResult{Table: t.Name, Status: statusFailed, Err: err})
			continue
		}

		if err := target.ExecDDL(ctx, ddl); err != nil {
			log.Printf("  %s: create table failed: %v", t.Name, err)
			summary.add(TableResult{Table: t.Name, Status: statusFailed, Err: err})
			continue
		}

		createIndexes(ctx, target, t)

		log.Printf("  %s: table created (%d columns)", t.Name, len(t.DataColumns()))
		summary.add(TableResult{Table: t.Name, Status: statusSuccess})
	}

	return summary
}

// createIndexes migrates the non-primary indexes of one table. Indexes that
// touch ignored columns are skipped; individual index failures are logged
// and do not fail the table, so re-runs that hit duplicate-index errors
// keep going.
func createIndexes(ctx context.Context, target TargetClient, t *Table) {
	ignored := make(map[string]bool)
	for _, name := range t.IgnoredColumnNames() {
		ignored[name] = true
	}

	for _, idx := range t.Indexes {
		skip := false
		for _, col := range idx.Columns {
			if ignored[col] {
				skip = true
				break
			}
		}
		if skip {
			log.Printf("  %s: index %s touches ignored columns, skipping", t.Name, idx.Name)
			continue
		}
		if len(idx.Columns) == 0 {
			// expression index, not representable as a plain column list
			continue
		}

		if err := target.ExecDDL(ctx, generateCreateIndex(t.Name, idx)); err != nil {
			log.Printf("  %s: index %s failed: %v", t.Name, idx.Name, err)
		}
	}
}

// introspectTables builds the read-only table descriptors every later phase
// shares.
func introspectTables(ctx context.Context, source SourceClient, cfg *MigrationConfig) (*Schema, error) {
	all, err := source.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	names := cfg.selectTables(all)

	schema := &Schema{}
	for _, name := range names {
		t, err := source.TableSchema(ctx, name, cfg.Migration.IgnoreTypes)
		if err != nil {
			return nil, fmt.Errorf("introspect %s: %w", name, err)
		}
		schema.Tables = append(schema.Tables, *t)
	}
	return schema, nil
}
