package main

import "log"

// ProgressFunc receives one event per committed batch: rows done so far
// versus the table total. Injected into the data migrator so tests can run
// silent.
type ProgressFunc func(table string, done, total int64)

// logProgress is the default sink.
func logProgress(table string, done, total int64) {
	log.Printf("  %s: %d/%d rows", table, done, total)
}

// noProgress discards events.
func noProgress(string, int64, int64) {}
