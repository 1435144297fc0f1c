package main

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestCheckpointStore_RoundTrip(t *testing.T) {
	store, err := newCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("newCheckpointStore: %v", err)
	}

	res := TableResult{
		Table:  "test_users",
		Status: statusPartial,
		Rows:   2000,
		Err:    errors.New("insert batch at offset 2000 failed"),
	}
	if err := store.Save(res); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cp, err := store.Load("test_users")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cp == nil {
		t.Fatal("Load returned nil for a saved checkpoint")
	}
	if cp.Table != "test_users" || cp.Status != statusPartial || cp.Rows != 2000 {
		t.Errorf("checkpoint = %+v", cp)
	}
	if cp.Error == "" {
		t.Error("error text should be recorded")
	}
	if cp.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestCheckpointStore_LoadMissing(t *testing.T) {
	store, err := newCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("newCheckpointStore: %v", err)
	}

	cp, err := store.Load("never_saved")
	if err != nil {
		t.Fatalf("Load of missing checkpoint must not error: %v", err)
	}
	if cp != nil {
		t.Errorf("expected nil, got %+v", cp)
	}
}

func TestCheckpointStore_Reset(t *testing.T) {
	store, err := newCheckpointStore(t.TempDir())
	if err != nil {
		t.Fatalf("newCheckpointStore: %v", err)
	}

	if err := store.Save(TableResult{Table: "t", Status: statusSuccess, Rows: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Reset("t"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if cp, _ := store.Load("t"); cp != nil {
		t.Errorf("checkpoint should be gone, got %+v", cp)
	}

	// resetting twice is fine
	if err := store.Reset("t"); err != nil {
		t.Errorf("Reset of missing checkpoint must not error: %v", err)
	}
}

func TestCheckpointStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "checkpoints")
	if _, err := newCheckpointStore(dir); err != nil {
		t.Fatalf("newCheckpointStore should create %s: %v", dir, err)
	}
}
