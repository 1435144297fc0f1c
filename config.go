package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// MigrationConfig holds the full TOML-driven migration configuration.
type MigrationConfig struct {
	Source     SourceConfig     `toml:"source"`
	Target     TargetConfig     `toml:"target"`
	Migration  MigrationOptions `toml:"migration"`
	Validation ValidationConfig `toml:"validation"`
	Hooks      HooksConfig      `toml:"hooks"`

	// configDir is the directory containing the TOML file, used to resolve
	// relative hook and checkpoint paths.
	configDir string
}

// SourceConfig identifies the PostgreSQL source.
type SourceConfig struct {
	DSN      string `toml:"dsn"`
	Schema   string `toml:"schema"`
	PoolSize int    `toml:"pool_size"`
}

// TargetConfig identifies the OceanBase (MySQL protocol) target.
type TargetConfig struct {
	DSN      string `toml:"dsn"`
	PoolSize int    `toml:"pool_size"`
}

// MigrationOptions controls table selection and the data-copy engine.
type MigrationOptions struct {
	BatchSize          int      `toml:"batch_size"`
	Workers            int      `toml:"workers"`
	MaxRetries         int      `toml:"max_retries"`
	RetryDelay         float64  `toml:"retry_delay"` // seconds
	BackoffFactor      float64  `toml:"backoff_factor"`
	IgnoreTypes        []string `toml:"ignore_types"`
	IncludeTables      []string `toml:"include_tables"`
	ExcludeTables      []string `toml:"exclude_tables"`
	TruncateBeforeCopy bool     `toml:"truncate_before_copy"`
	Resume             bool     `toml:"resume"`
	CheckpointDir      string   `toml:"checkpoint_dir"`
}

// ValidationConfig controls the post-migration checks.
type ValidationConfig struct {
	CheckCount    bool  `toml:"check_count"`
	CheckChecksum bool  `toml:"check_checksum"`
	SampleSize    int64 `toml:"sample_size"`
}

// HooksConfig lists SQL files executed on the target around the data phase.
type HooksConfig struct {
	BeforeData []string `toml:"before_data"`
	AfterData  []string `toml:"after_data"`
}

// loadConfig reads a TOML config file and returns a MigrationConfig with
// defaults applied. Missing required keys fail here, before any connection
// is opened; unrecognized keys are logged and ignored.
func loadConfig(path string) (*MigrationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := MigrationConfig{
		Source: SourceConfig{Schema: "public", PoolSize: 10},
		Target: TargetConfig{PoolSize: 10},
		Migration: MigrationOptions{
			BatchSize:     1000,
			Workers:       defaultWorkers(),
			MaxRetries:    3,
			RetryDelay:    5,
			BackoffFactor: 2,
			IgnoreTypes:   []string{"json", "jsonb", "array"},
			CheckpointDir: "checkpoints",
		},
		Validation: ValidationConfig{
			CheckCount:    true,
			CheckChecksum: true,
			SampleSize:    1000,
		},
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		log.Printf("ignoring unknown config keys: %s", strings.Join(keys, ", "))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.configDir = filepath.Dir(absPath)

	if cfg.Source.DSN == "" {
		return nil, fmt.Errorf("source.dsn is required")
	}
	if cfg.Target.DSN == "" {
		return nil, fmt.Errorf("target.dsn is required")
	}
	cfg.Source.Schema = strings.TrimSpace(cfg.Source.Schema)
	if cfg.Source.Schema == "" {
		cfg.Source.Schema = "public"
	}
	if cfg.Source.PoolSize <= 0 || cfg.Target.PoolSize <= 0 {
		return nil, fmt.Errorf("pool_size must be positive")
	}
	if cfg.Migration.BatchSize <= 0 {
		return nil, fmt.Errorf("migration.batch_size must be positive")
	}
	if cfg.Migration.Workers <= 0 {
		cfg.Migration.Workers = defaultWorkers()
	}
	if cfg.Migration.MaxRetries < 0 {
		return nil, fmt.Errorf("migration.max_retries must not be negative")
	}
	if cfg.Migration.RetryDelay < 0 {
		return nil, fmt.Errorf("migration.retry_delay must not be negative")
	}
	if cfg.Migration.BackoffFactor < 1 {
		return nil, fmt.Errorf("migration.backoff_factor must be >= 1")
	}
	if len(cfg.Migration.IncludeTables) > 0 && len(cfg.Migration.ExcludeTables) > 0 {
		return nil, fmt.Errorf("include_tables and exclude_tables are mutually exclusive")
	}
	if cfg.Validation.SampleSize <= 0 {
		return nil, fmt.Errorf("validation.sample_size must be positive")
	}

	return &cfg, nil
}

// retryPolicy derives the retry parameters for batch writes.
func (c *MigrationConfig) retryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: c.Migration.MaxRetries,
		Delay:      time.Duration(c.Migration.RetryDelay * float64(time.Second)),
		Backoff:    c.Migration.BackoffFactor,
	}
}

// resolvePath resolves a path relative to the config file directory.
func (c *MigrationConfig) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.configDir, p)
}

// selectTables applies include/exclude filters to the introspected table
// names. Include wins when set; otherwise everything minus the excludes.
func (c *MigrationConfig) selectTables(all []string) []string {
	if len(c.Migration.IncludeTables) > 0 {
		want := make(map[string]bool, len(c.Migration.IncludeTables))
		for _, t := range c.Migration.IncludeTables {
			want[t] = true
		}
		var out []string
		for _, t := range all {
			if want[t] {
				out = append(out, t)
			}
		}
		return out
	}
	skip := make(map[string]bool, len(c.Migration.ExcludeTables))
	for _, t := range c.Migration.ExcludeTables {
		skip[t] = true
	}
	var out []string
	for _, t := range all {
		if !skip[t] {
			out = append(out, t)
		}
	}
	return out
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	if n > 4 {
		return 4
	}
	return n
}
