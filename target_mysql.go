package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// obTarget writes schema and data to OceanBase over the MySQL protocol.
// The *sql.DB is the bounded target-side pool; every write runs in its own
// transaction and is rolled back before the connection goes back to the pool
// on failure.
type obTarget struct {
	db *sql.DB
}

func newOBTarget(db *sql.DB) *obTarget {
	return &obTarget{db: db}
}

// targetDSNWithOptions normalizes the target DSN: parse-time timestamps in
// UTC and interpolated parameters for fewer round trips.
func targetDSNWithOptions(baseDSN string) (string, error) {
	cfg, err := mysql.ParseDSN(baseDSN)
	if err != nil {
		return "", fmt.Errorf("parse target dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// openTargetDB opens the bounded target pool.
func openTargetDB(dsn string, poolSize int) (*sql.DB, error) {
	normalized, err := targetDSNWithOptions(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, fmt.Errorf("open target: %w", err)
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	return db, nil
}

func (o *obTarget) ExecDDL(ctx context.Context, ddl string) error {
	if _, err := o.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("exec ddl: %w\nDDL: %s", err, ddl)
	}
	return nil
}

// InsertBatch writes all rows as one multi-row INSERT inside a single
// transaction. Committing per batch is what makes a retried batch
// exactly-once: either the whole batch landed or none of it did.
func (o *obTarget) InsertBatch(ctx context.Context, t *Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	cols := t.DataColumns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = obIdent(c.Name)
	}

	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",") + ")"
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", obIdent(t.Name), strings.Join(quoted, ", "))

	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if len(row) != len(cols) {
			return 0, fmt.Errorf("insert %s: row has %d values, want %d", t.Name, len(row), len(cols))
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(placeholders)
		args = append(args, row...)
	}

	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert %s: begin: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("insert %s: %w", t.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert %s: commit: %w", t.Name, err)
	}
	return int64(len(rows)), nil
}

func (o *obTarget) RowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	err := o.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", obIdent(table)),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

func (o *obTarget) ReadOrdered(ctx context.Context, t *Table, limit int64) ([][]any, error) {
	cols := t.DataColumns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = obIdent(c.Name)
	}

	orderCols := t.SurvivingPrimaryKey()
	if len(orderCols) == 0 {
		for _, c := range cols {
			orderCols = append(orderCols, c.Name)
		}
	}
	order := make([]string, len(orderCols))
	for i, c := range orderCols {
		order[i] = obIdent(c)
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d",
		strings.Join(quoted, ", "), obIdent(t.Name), strings.Join(order, ", "), limit)

	rows, err := o.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read sample %s: %w", t.Name, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read sample %s: %w", t.Name, err)
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

func (o *obTarget) Truncate(ctx context.Context, table string) error {
	if _, err := o.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", obIdent(table))); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}
