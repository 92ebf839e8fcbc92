/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pgedge-sales-analyst/internal/config"
	"pgedge-sales-analyst/internal/logging"
)

// applicationName identifies dashboard sessions in pg_stat_activity
const applicationName = "pgEdge Sales Analyst"

// Client owns the connection pool to the sales database. Every session
// starts read-only: default_transaction_read_only is set at the session
// level so even a statement that slips past the guard cannot write.
type Client struct {
	pool    *pgxpool.Pool
	connStr string
}

// NewClient creates an unconnected database client from configuration
func NewClient(cfg *config.DatabaseConfig) *Client {
	return &Client{
		connStr: cfg.BuildConnectionString(),
	}
}

// Connect establishes the connection pool and verifies it with a ping
func (c *Client) Connect(ctx context.Context, cfg *config.DatabaseConfig) error {
	startTime := time.Now()

	connStr, err := addApplicationName(c.connStr, applicationName)
	if err != nil {
		return fmt.Errorf("unable to enhance connection string: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("unable to parse connection string: %w", err)
	}

	if cfg.PoolMaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.PoolMaxConns)
	}
	if cfg.PoolMinConns > 0 {
		poolConfig.MinConns = int32(cfg.PoolMinConns)
	}
	if cfg.PoolMaxConnIdleTime != "" {
		idleTime, err := time.ParseDuration(cfg.PoolMaxConnIdleTime)
		if err != nil {
			return fmt.Errorf("invalid pool_max_conn_idle_time: %w", err)
		}
		poolConfig.MaxConnIdleTime = idleTime
	}

	// Read-only at the session level, independent of the statement guard
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = make(map[string]string)
	}
	poolConfig.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("unable to ping database: %w", err)
	}

	c.pool = pool
	logging.Info("Connected to database",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"duration_ms", time.Since(startTime).Milliseconds())

	return nil
}

// Pool returns the underlying pool, nil before Connect
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Close shuts down the connection pool
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}

// Ping verifies the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	if c.pool == nil {
		return fmt.Errorf("database not connected")
	}
	return c.pool.Ping(ctx)
}

// addApplicationName adds application_name to a PostgreSQL connection string
func addApplicationName(connStr, appName string) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("invalid connection string: %w", err)
	}

	query := u.Query()
	if !query.Has("application_name") {
		query.Set("application_name", appName)
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}
