package main

import (
	"context"
	"log"
	"sync"
)

// dataMigrator streams rows from the source to the target in batches.
// Independent tables run on a fixed pool of workers; within one table,
// batches are written sequentially in source order by a single worker.
type dataMigrator struct {
	source      SourceClient
	target      TargetClient
	cfg         *MigrationConfig
	progress    ProgressFunc
	checkpoints *checkpointStore // nil when checkpointing is disabled
}

func newDataMigrator(source SourceClient, target TargetClient, cfg *MigrationConfig, progress ProgressFunc) *dataMigrator {
	if progress == nil {
		progress = noProgress
	}
	return &dataMigrator{source: source, target: target, cfg: cfg, progress: progress}
}

// MigrateAll copies every table and returns the per-table summary. Results
// from concurrent workers are appended under a mutex.
func (m *dataMigrator) MigrateAll(ctx context.Context, schema *Schema) *Summary {
	summary := &Summary{}
	var mu sync.Mutex

	jobs := make(chan *Table)
	var wg sync.WaitGroup

	workers := m.cfg.Migration.Workers
	if workers < 1 {
		workers = 1
	}
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				res := m.migrateTable(ctx, t)
				mu.Lock()
				summary.add(res)
				mu.Unlock()
			}
		}()
	}

	for i := range schema.Tables {
		jobs <- &schema.Tables[i]
	}
	close(jobs)
	wg.Wait()

	return summary
}

// migrateTable runs the per-table state machine: count, then sequential
// offset/limit pages, each converted and written as one retried batch.
// A batch failure after retries leaves the table partial, rows committed by
// earlier batches are retained, and the run moves on.
func (m *dataMigrator) migrateTable(ctx context.Context, t *Table) TableResult {
	if m.checkpoints != nil && m.cfg.Migration.Resume {
		if cp, _ := m.checkpoints.Load(t.Name); cp != nil && cp.Status == statusSuccess {
			log.Printf("  %s: checkpoint says done (%d rows), skipping", t.Name, cp.Rows)
			return TableResult{Table: t.Name, Status: statusSkipped, Rows: cp.Rows}
		}
	}

	total, err := m.source.RowCount(ctx, t.Name)
	if err != nil {
		return m.finish(TableResult{Table: t.Name, Status: statusFailed, Err: err})
	}
	if total == 0 {
		log.Printf("  %s: empty table", t.Name)
		return m.finish(TableResult{Table: t.Name, Status: statusSuccess, Rows: 0})
	}

	if m.cfg.Migration.TruncateBeforeCopy {
		if err := m.target.Truncate(ctx, t.Name); err != nil {
			return m.finish(TableResult{Table: t.Name, Status: statusFailed, Err: err})
		}
	}

	batchSize := int64(m.cfg.Migration.BatchSize)
	policy := m.cfg.retryPolicy()
	cols := t.DataColumns()

	var migrated int64
	for offset := int64(0); offset < total; offset += batchSize {
		// cancellation takes effect at batch boundaries only
		if err := ctx.Err(); err != nil {
			return m.finish(TableResult{Table: t.Name, Status: statusPartial, Rows: migrated, Err: err})
		}

		page, err := m.source.ReadPage(ctx, t, offset, batchSize)
		if err != nil {
			return m.finish(TableResult{Table: t.Name, Status: statusPartial, Rows: migrated, Err: err})
		}
		if len(page) == 0 {
			break
		}

		batch, err := convertRows(page, cols)
		if err != nil {
			return m.finish(TableResult{Table: t.Name, Status: statusPartial, Rows: migrated, Err: err})
		}

		var inserted int64
		err = withRetry(ctx, policy, "insert "+t.Name, func() error {
			n, insErr := m.target.InsertBatch(ctx, t, batch)
			inserted = n
			return insErr
		})
		if err != nil {
			return m.finish(TableResult{Table: t.Name, Status: statusPartial, Rows: migrated, Err: err})
		}

		migrated += inserted
		m.progress(t.Name, migrated, total)
	}

	return m.finish(TableResult{Table: t.Name, Status: statusSuccess, Rows: migrated})
}

func (m *dataMigrator) finish(res TableResult) TableResult {
	if m.checkpoints != nil {
		if err := m.checkpoints.Save(res); err != nil {
			log.Printf("  %s: checkpoint save failed: %v", res.Table, err)
		}
	}
	return res
}

// convertRows applies the type converter to every cell of a page. The batch
// is ephemeral: built here, written once (including retries), discarded.
func convertRows(page [][]any, cols []Column) ([][]any, error) {
	batch := make([][]any, len(page))
	for i, row := range page {
		converted := make([]any, len(row))
		for j, val := range row {
			v, err := convertValue(val, cols[j].DataType)
			if err != nil {
				return nil, err
			}
			converted[j] = v
		}
		batch[i] = converted
	}
	return batch, nil
}
