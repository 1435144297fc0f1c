package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pools owns the two bounded connection pools for the run. Acquisition from
// an exhausted pool blocks the caller until a connection is released; neither
// pool grows past its configured size.
type Pools struct {
	Source *pgxpool.Pool
	Target *sql.DB
}

// openPools connects both sides and verifies each with a ping so that
// connection problems fail the run before any migration work starts.
func openPools(ctx context.Context, cfg *MigrationConfig) (*Pools, error) {
	pgCfg, err := pgxpool.ParseConfig(cfg.Source.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse source dsn: %w", err)
	}
	pgCfg.MaxConns = int32(cfg.Source.PoolSize)

	srcPool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect source: %w", err)
	}
	if err := srcPool.Ping(ctx); err != nil {
		srcPool.Close()
		return nil, fmt.Errorf("ping source: %w", err)
	}

	targetDB, err := openTargetDB(cfg.Target.DSN, cfg.Target.PoolSize)
	if err != nil {
		srcPool.Close()
		return nil, err
	}
	if err := targetDB.PingContext(ctx); err != nil {
		targetDB.Close()
		srcPool.Close()
		return nil, fmt.Errorf("ping target: %w", err)
	}

	return &Pools{Source: srcPool, Target: targetDB}, nil
}

// Close drains and closes every pooled connection on both sides.
func (p *Pools) Close() {
	if p.Target != nil {
		p.Target.Close()
	}
	if p.Source != nil {
		p.Source.Close()
	}
}
