/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"pgedge-sales-analyst/internal/config"
	"pgedge-sales-analyst/internal/logging"
)

// Result is a fully materialized query result. Rows holds at most the
// configured row cap; Truncated reports whether the statement produced more.
type Result struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
	Duration  time.Duration
}

// RowCount returns the number of materialized rows
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// Executor runs generated SQL against the sales database under the
// configured limits: statement guard, per-query timeout, and row cap.
type Executor struct {
	client  *Client
	maxRows int
	timeout time.Duration
	guard   bool
}

// NewExecutor creates an executor bound to a connected client
func NewExecutor(client *Client, cfg *config.QueryConfig) *Executor {
	return &Executor{
		client:  client,
		maxRows: cfg.MaxRows,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		guard:   !cfg.AllowWrites,
	}
}

// Execute runs one SQL statement and materializes the result. Statements
// rejected by the guard never reach the database. Every value is converted
// by the driver; callers format for display themselves.
func (e *Executor) Execute(ctx context.Context, sql string) (*Result, error) {
	if e.guard {
		if err := CheckReadOnly(sql); err != nil {
			return nil, err
		}
	}

	if e.client == nil || e.client.Pool() == nil {
		return nil, fmt.Errorf("database not connected")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	startTime := time.Now()

	rows, err := e.client.Pool().Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	result, err := materialize(rows, e.maxRows)
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime)

	logging.Debug("Executed query",
		"rows", len(result.Rows),
		"truncated", result.Truncated,
		"duration_ms", result.Duration.Milliseconds())

	return result, nil
}

// resultRows is the slice of the pgx rows API that materialization needs
type resultRows interface {
	Next() bool
	Values() ([]any, error)
	FieldDescriptions() []pgconn.FieldDescription
	Err() error
}

// materialize drains rows into a Result, never holding more than maxRows.
// Reading stops at the cap and the result is marked Truncated.
func materialize(rows resultRows, maxRows int) (*Result, error) {
	fieldDescriptions := rows.FieldDescriptions()
	columns := make([]string, 0, len(fieldDescriptions))
	for _, fd := range fieldDescriptions {
		columns = append(columns, string(fd.Name))
	}

	result := &Result{
		Columns: columns,
	}

	for rows.Next() {
		if len(result.Rows) >= maxRows {
			// Stop reading: the cap bounds memory, not the statement
			result.Truncated = true
			break
		}

		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("error reading row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}

	// rows.Err is skipped when we broke out early at the cap
	if !result.Truncated {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
	}

	return result, nil
}
