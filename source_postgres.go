package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgSource reads schema and data from a PostgreSQL database through a
// bounded pgxpool. All per-call connections are scoped: acquired, used, and
// released on every exit path.
type pgSource struct {
	pool   *pgxpool.Pool
	schema string
}

func newPGSource(pool *pgxpool.Pool, schema string) *pgSource {
	return &pgSource{pool: pool, schema: schema}
}

// pgIdent quotes a PostgreSQL identifier.
func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *pgSource) qualified(table string) string {
	return pgIdent(s.schema) + "." + pgIdent(table)
}

func (s *pgSource) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT tablename FROM pg_tables WHERE schemaname = $1 ORDER BY tablename`,
		s.schema,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (s *pgSource) TableSchema(ctx context.Context, table string, ignoreTypes []string) (*Table, error) {
	t := &Table{Schema: s.schema, Name: table}

	cols, err := s.introspectColumns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("introspect columns for %s: %w", table, err)
	}

	pks, err := s.introspectPrimaryKey(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("introspect primary key for %s: %w", table, err)
	}
	t.PrimaryKey = pks

	pkSet := make(map[string]bool, len(pks))
	for _, pk := range pks {
		pkSet[pk] = true
	}
	for i := range cols {
		cols[i].IsPrimary = pkSet[cols[i].Name]
		cols[i].Ignored = shouldIgnoreColumn(cols[i], ignoreTypes)
	}
	t.Columns = cols

	indexes, err := s.introspectIndexes(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("introspect indexes for %s: %w", table, err)
	}
	t.Indexes = indexes

	return t, nil
}

func (s *pgSource) introspectColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT column_name, data_type, udt_name,
		        COALESCE(character_maximum_length, 0),
		        COALESCE(numeric_precision, 0),
		        COALESCE(numeric_scale, 0),
		        is_nullable, column_default, ordinal_position
		 FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2
		 ORDER BY ordinal_position`,
		s.schema, table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		var nullable string
		var dflt *string
		if err := rows.Scan(
			&c.Name, &c.DataType, &c.UDTName,
			&c.CharMaxLen, &c.Precision, &c.Scale,
			&nullable, &dflt, &c.OrdinalPos,
		); err != nil {
			return nil, err
		}
		c.DataType = strings.ToLower(c.DataType)
		c.UDTName = strings.ToLower(c.UDTName)
		c.Nullable = nullable == "YES"
		c.Default = dflt
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *pgSource) introspectPrimaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.attname
		 FROM pg_index i
		 JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		 WHERE i.indrelid = ($1 || '.' || $2)::regclass AND i.indisprimary
		 ORDER BY array_position(i.indkey, a.attnum)`,
		pgIdent(s.schema), pgIdent(table),
	)
	if err != nil {
		return nil, err
	}
	pks, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return pks, nil
}

func (s *pgSource) introspectIndexes(ctx context.Context, table string) ([]Index, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ic.relname, ix.indisunique, a.attname
		 FROM pg_index ix
		 JOIN pg_class c ON c.oid = ix.indrelid
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 JOIN pg_class ic ON ic.oid = ix.indexrelid
		 JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = ANY(ix.indkey)
		 WHERE n.nspname = $1 AND c.relname = $2 AND NOT ix.indisprimary
		 ORDER BY ic.relname, array_position(ix.indkey, a.attnum)`,
		s.schema, table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexMap := make(map[string]*Index)
	var indexOrder []string
	for rows.Next() {
		var idxName, colName string
		var unique bool
		if err := rows.Scan(&idxName, &unique, &colName); err != nil {
			return nil, err
		}
		idx, ok := indexMap[idxName]
		if !ok {
			idx = &Index{Name: idxName, Unique: unique}
			indexMap[idxName] = idx
			indexOrder = append(indexOrder, idxName)
		}
		idx.Columns = append(idx.Columns, colName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var indexes []Index
	for _, name := range indexOrder {
		indexes = append(indexes, *indexMap[name])
	}
	return indexes, nil
}

func (s *pgSource) RowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", s.qualified(table)),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// selectColumns returns the quoted projection of non-ignored columns.
func (s *pgSource) selectColumns(t *Table) string {
	cols := t.DataColumns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgIdent(c.Name)
	}
	return strings.Join(quoted, ", ")
}

// orderBy returns a stable ordering clause: primary key ascending, falling
// back to every surviving column for keyless tables.
func (s *pgSource) orderBy(t *Table) string {
	cols := t.SurvivingPrimaryKey()
	if len(cols) == 0 {
		for _, c := range t.DataColumns() {
			cols = append(cols, c.Name)
		}
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func (s *pgSource) readRows(ctx context.Context, query string) ([][]any, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

func (s *pgSource) ReadPage(ctx context.Context, t *Table, offset, limit int64) ([][]any, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s OFFSET %d LIMIT %d",
		s.selectColumns(t), s.qualified(t.Name), s.orderBy(t), offset, limit)
	rows, err := s.readRows(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read page %s offset=%d: %w", t.Name, offset, err)
	}
	return rows, nil
}

func (s *pgSource) ReadOrdered(ctx context.Context, t *Table, limit int64) ([][]any, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %d",
		s.selectColumns(t), s.qualified(t.Name), s.orderBy(t), limit)
	rows, err := s.readRows(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read sample %s: %w", t.Name, err)
	}
	return rows, nil
}
