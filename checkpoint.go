package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// checkpointStore persists one small JSON file per table so an interrupted
// run can skip tables that already finished.
type checkpointStore struct {
	dir string
}

// Checkpoint is the recorded outcome of one table's data phase.
type Checkpoint struct {
	Table     string    `json:"table"`
	Status    string    `json:"status"`
	Rows      int64     `json:"rows"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCheckpointStore(dir string) (*checkpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &checkpointStore{dir: dir}, nil
}

func (s *checkpointStore) path(table string) string {
	return filepath.Join(s.dir, table+".json")
}

// Load returns the checkpoint for a table, or nil when none exists.
func (s *checkpointStore) Load(table string) (*Checkpoint, error) {
	data, err := os.ReadFile(s.path(table))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", table, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", table, err)
	}
	return &cp, nil
}

// Save records a table result.
func (s *checkpointStore) Save(res TableResult) error {
	cp := Checkpoint{
		Table:     res.Table,
		Status:    res.Status,
		Rows:      res.Rows,
		UpdatedAt: time.Now().UTC(),
	}
	if res.Err != nil {
		cp.Error = res.Err.Error()
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(res.Table), data, 0o644)
}

// Reset removes the checkpoint for a table, if any.
func (s *checkpointStore) Reset(table string) error {
	err := os.Remove(s.path(table))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
