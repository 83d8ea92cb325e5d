// Package database provides PostgreSQL connection management with lifecycle coordination.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/cadence/pkg/lifecycle"
)

// System manages the connection pool and its lifecycle.
type System interface {
	// Connection returns the underlying database connection pool.
	Connection() *sql.DB
	// Ready reports whether the startup ping succeeded.
	Ready() bool
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
	ready       atomic.Bool
}

// New parses the configuration into a pgx connection config and opens a pool
// through the pgx stdlib adapter. No connection is made until Start.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	connCfg.ConnectTimeout = cfg.ConnTimeoutDuration()

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		logger:      logger.With("system", "database"),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Ready() bool {
	return d.ready.Load()
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("starting database connection")
	lc.Register("database", d)

	lc.OnStartup("database", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, d.connTimeout)
		defer cancel()

		if err := d.conn.PingContext(pingCtx); err != nil {
			return fmt.Errorf("%w: %w", ErrNotReady, err)
		}

		d.ready.Store(true)
		d.logger.Info("database connection established")
		return nil
	})

	lc.OnShutdown(func() {
		d.ready.Store(false)
		d.logger.Info("closing database connection")

		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}

		d.logger.Info("database connection closed")
	})

	return nil
}
