package main

// Column represents a single column from PostgreSQL information_schema.
type Column struct {
	Name       string
	DataType   string // normalized type, e.g. "varchar", "timestamptz", "serial"
	UDTName    string // underlying type name, e.g. "int4", "_text" for arrays
	CharMaxLen int64
	Precision  int64
	Scale      int64
	Nullable   bool
	Default    *string
	IsPrimary  bool
	OrdinalPos int
	Ignored    bool
}

// Table holds the introspected definition of a PostgreSQL table.
// PrimaryKey lists PK column names in key order; Indexes are non-primary.
type Table struct {
	Schema     string
	Name       string
	Columns    []Column
	PrimaryKey []string
	Indexes    []Index
}

// Index represents a non-primary PostgreSQL index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// DataColumns returns the columns that take part in DDL and data movement,
// i.e. everything not marked Ignored, in ordinal order.
func (t *Table) DataColumns() []Column {
	cols := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Ignored {
			cols = append(cols, c)
		}
	}
	return cols
}

// SurvivingPrimaryKey returns the PK column names minus ignored columns.
// Ignoring a PK column must not break PK generation for the rest of the key.
func (t *Table) SurvivingPrimaryKey() []string {
	ignored := make(map[string]bool)
	for _, c := range t.Columns {
		if c.Ignored {
			ignored[c.Name] = true
		}
	}
	var pks []string
	for _, pk := range t.PrimaryKey {
		if !ignored[pk] {
			pks = append(pks, pk)
		}
	}
	return pks
}

// IgnoredColumnNames returns the names of columns excluded from migration.
func (t *Table) IgnoredColumnNames() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Ignored {
			names = append(names, c.Name)
		}
	}
	return names
}

// Schema holds all introspected tables selected for migration.
type Schema struct {
	Tables []Table
}

// Table statuses reported in run summaries.
const (
	statusSuccess = "success"
	statusFailed  = "failed"
	statusPartial = "partial"
	statusSkipped = "skipped"
)

// TableResult is the per-table outcome of one migration phase.
type TableResult struct {
	Table  string
	Status string
	Rows   int64
	Err    error
}

// Summary accumulates per-table results for one phase.
type Summary struct {
	Success []TableResult
	Failed  []TableResult
	Partial []TableResult
	Skipped []TableResult
}

func (s *Summary) add(r TableResult) {
	switch r.Status {
	case statusFailed:
		s.Failed = append(s.Failed, r)
	case statusPartial:
		s.Partial = append(s.Partial, r)
	case statusSkipped:
		s.Skipped = append(s.Skipped, r)
	default:
		s.Success = append(s.Success, r)
	}
}

// ValidationResult is the outcome of validating one table.
// A mismatch is a reported value, not an error.
type ValidationResult struct {
	Table           string
	SourceCount     int64
	TargetCount     int64
	CountMatched    bool
	ChecksumRun     bool
	SourceChecksum  string
	TargetChecksum  string
	ChecksumMatched bool
	SampledRows     int64
}

// Matched reports whether every check that ran passed.
func (v ValidationResult) Matched() bool {
	if !v.CountMatched {
		return false
	}
	if v.ChecksumRun && !v.ChecksumMatched {
		return false
	}
	return true
}
