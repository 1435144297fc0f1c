package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath string
	schemaOnly bool
	dataOnly   bool
	validate   bool
)

var rootCmd = &cobra.Command{
	Use:   "pg2ob [config.toml]",
	Short: "PostgreSQL to OceanBase migration tool",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMigration,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to migration TOML config file")
	rootCmd.Flags().BoolVar(&schemaOnly, "schema-only", false, "migrate table structure only")
	rootCmd.Flags().BoolVar(&dataOnly, "data-only", false, "migrate data only")
	rootCmd.Flags().BoolVar(&validate, "validate", false, "validate data after migration")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMigration(cmd *cobra.Command, args []string) error {
	// Resolve config path: positional arg takes precedence over --config flag
	cfgPath := configPath
	if len(args) > 0 {
		cfgPath = args[0]
	}
	if cfgPath == "" {
		return fmt.Errorf("config file required: pg2ob <config.toml> or pg2ob --config <config.toml>")
	}
	if schemaOnly && dataOnly {
		return fmt.Errorf("--schema-only and --data-only are mutually exclusive")
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	start := time.Now()

	log.Printf("pg2ob: PostgreSQL to OceanBase migration")
	log.Printf("config: schema=%s workers=%d batch_size=%d max_retries=%d ignore_types=%v",
		cfg.Source.Schema, cfg.Migration.Workers, cfg.Migration.BatchSize,
		cfg.Migration.MaxRetries, cfg.Migration.IgnoreTypes)

	pools, err := openPools(ctx, cfg)
	if err != nil {
		return err
	}
	defer pools.Close()

	source := newPGSource(pools.Source, cfg.Source.Schema)
	target := newOBTarget(pools.Target)

	log.Printf("introspecting source schema '%s'...", cfg.Source.Schema)
	schema, err := introspectTables(ctx, source, cfg)
	if err != nil {
		return fmt.Errorf("introspect schema: %w", err)
	}
	log.Printf("found %d tables", len(schema.Tables))
	for i := range schema.Tables {
		t := &schema.Tables[i]
		log.Printf("  %s (%d cols, %d ignored, %d indexes)",
			t.Name, len(t.Columns), len(t.IgnoredColumnNames()), len(t.Indexes))
	}

	failures := 0

	if !dataOnly {
		log.Printf("migrating schema...")
		schemaSummary := migrateSchema(ctx, target, schema)
		printSummary("schema", schemaSummary)
		failures += len(schemaSummary.Failed) + len(schemaSummary.Partial)
	}

	if !schemaOnly {
		if err := loadAndExecSQLFiles(ctx, pools.Target, cfg, cfg.Hooks.BeforeData, "before_data"); err != nil {
			return fmt.Errorf("before_data hooks: %w", err)
		}

		log.Printf("migrating data with %d workers...", cfg.Migration.Workers)
		migrator := newDataMigrator(source, target, cfg, logProgress)
		if dir := cfg.Migration.CheckpointDir; dir != "" {
			store, err := newCheckpointStore(cfg.resolvePath(dir))
			if err != nil {
				return err
			}
			migrator.checkpoints = store
		}
		dataSummary := migrator.MigrateAll(ctx, schema)
		printSummary("data", dataSummary)
		failures += len(dataSummary.Failed) + len(dataSummary.Partial)

		if err := loadAndExecSQLFiles(ctx, pools.Target, cfg, cfg.Hooks.AfterData, "after_data"); err != nil {
			return fmt.Errorf("after_data hooks: %w", err)
		}
	}

	mismatches := 0
	if validate {
		log.Printf("validating data...")
		validator := newDataValidator(source, target, cfg)
		for _, res := range validator.ValidateAll(ctx, schema) {
			if !res.Matched() {
				mismatches++
			}
		}
		log.Printf("validation: %d/%d tables matched", len(schema.Tables)-mismatches, len(schema.Tables))
	}

	log.Printf("migration completed in %s", time.Since(start).Round(time.Millisecond))

	if failures > 0 || mismatches > 0 {
		return fmt.Errorf("migration incomplete: %d table failures, %d validation mismatches", failures, mismatches)
	}
	return nil
}

// printSummary logs the per-table accounting for one phase. Every failure
// carries its captured error.
func printSummary(phase string, s *Summary) {
	log.Printf("%s phase: %d success, %d partial, %d failed, %d skipped",
		phase, len(s.Success), len(s.Partial), len(s.Failed), len(s.Skipped))
	for _, r := range s.Partial {
		log.Printf("  PARTIAL %s: %d rows committed: %v", r.Table, r.Rows, r.Err)
	}
	for _, r := range s.Failed {
		log.Printf("  FAILED %s: %v", r.Table, r.Err)
	}
}
