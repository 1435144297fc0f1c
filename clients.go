package main

import "context"

// SourceClient abstracts the PostgreSQL side: schema introspection plus
// counted and paged reads. Implemented by pgSource; tests substitute fakes.
type SourceClient interface {
	// ListTables returns base table names in the schema, sorted.
	ListTables(ctx context.Context) ([]string, error)

	// TableSchema introspects one table: ordered columns (with ignore flags
	// already applied), primary key, and non-primary indexes.
	TableSchema(ctx context.Context, table string, ignoreTypes []string) (*Table, error)

	// RowCount returns COUNT(*) for the table.
	RowCount(ctx context.Context, table string) (int64, error)

	// ReadPage reads one offset/limit page of the non-ignored column
	// projection, in primary-key order when the table has one.
	ReadPage(ctx context.Context, t *Table, offset, limit int64) ([][]any, error)

	// ReadOrdered reads up to limit rows in a stable key ordering for
	// deterministic validation sampling.
	ReadOrdered(ctx context.Context, t *Table, limit int64) ([][]any, error)
}

// TargetClient abstracts the OceanBase side: DDL execution, batched inserts,
// and the reads the validator needs.
type TargetClient interface {
	ExecDDL(ctx context.Context, ddl string) error

	// InsertBatch writes all rows in a single multi-row INSERT committed as
	// one transaction and returns the number of rows inserted. An empty
	// batch is a no-op returning 0.
	InsertBatch(ctx context.Context, t *Table, rows [][]any) (int64, error)

	RowCount(ctx context.Context, table string) (int64, error)

	ReadOrdered(ctx context.Context, t *Table, limit int64) ([][]any, error)

	Truncate(ctx context.Context, table string) error
}
