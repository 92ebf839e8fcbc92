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
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"pgedge-sales-analyst/internal/config"
)

// fakeRows feeds canned rows through the resultRows interface
type fakeRows struct {
	columns   []string
	rows      [][]any
	pos       int
	valuesErr error
	finalErr  error
}

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Values() ([]any, error) {
	if f.valuesErr != nil {
		return nil, f.valuesErr
	}
	return f.rows[f.pos-1], nil
}

func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, 0, len(f.columns))
	for _, name := range f.columns {
		fds = append(fds, pgconn.FieldDescription{Name: name})
	}
	return fds
}

func (f *fakeRows) Err() error {
	return f.finalErr
}

func testQueryConfig() *config.QueryConfig {
	return &config.QueryConfig{
		MaxRows:        100,
		TimeoutSeconds: 5,
		AllowWrites:    false,
	}
}

func TestExecutorGuardRejectsWrites(t *testing.T) {
	// Guard failures are checked before the pool is touched, so an
	// unconnected client is sufficient here
	executor := NewExecutor(&Client{}, testQueryConfig())

	_, err := executor.Execute(context.Background(), "DELETE FROM customer")
	if err == nil {
		t.Fatal("Execute() = nil error for a write statement")
	}
	if !strings.Contains(err.Error(), "read-only") {
		t.Errorf("error = %v, want statement guard message", err)
	}
}

func TestExecutorRequiresConnection(t *testing.T) {
	executor := NewExecutor(&Client{}, testQueryConfig())

	_, err := executor.Execute(context.Background(), "SELECT 1")
	if err == nil {
		t.Fatal("Execute() = nil error without a connection")
	}
	if !strings.Contains(err.Error(), "not connected") {
		t.Errorf("error = %v, want not-connected message", err)
	}
}

func TestExecutorAllowWritesDisablesGuard(t *testing.T) {
	cfg := testQueryConfig()
	cfg.AllowWrites = true
	executor := NewExecutor(&Client{}, cfg)

	// With the guard off the statement reaches the connection check instead
	_, err := executor.Execute(context.Background(), "DELETE FROM customer")
	if err == nil {
		t.Fatal("Execute() = nil error without a connection")
	}
	if strings.Contains(err.Error(), "read-only") {
		t.Errorf("error = %v, guard should be disabled", err)
	}
}

func TestResultRowCount(t *testing.T) {
	result := &Result{
		Columns: []string{"a"},
		Rows:    [][]any{{1}, {2}, {3}},
	}
	if got := result.RowCount(); got != 3 {
		t.Errorf("RowCount() = %d, want 3", got)
	}

	empty := &Result{Columns: []string{"a"}}
	if got := empty.RowCount(); got != 0 {
		t.Errorf("RowCount() = %d, want 0", got)
	}
}

func TestMaterializeRowCap(t *testing.T) {
	makeRows := func(n int) [][]any {
		rows := make([][]any, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, []any{i})
		}
		return rows
	}

	t.Run("more rows than the cap are truncated", func(t *testing.T) {
		rows := &fakeRows{columns: []string{"n"}, rows: makeRows(4)}

		result, err := materialize(rows, 3)
		if err != nil {
			t.Fatalf("materialize() error = %v", err)
		}
		if result.RowCount() != 3 {
			t.Errorf("RowCount() = %d, want the cap of 3", result.RowCount())
		}
		if !result.Truncated {
			t.Error("Truncated = false, want true past the cap")
		}
	})

	t.Run("exactly the cap is not truncated", func(t *testing.T) {
		rows := &fakeRows{columns: []string{"n"}, rows: makeRows(3)}

		result, err := materialize(rows, 3)
		if err != nil {
			t.Fatalf("materialize() error = %v", err)
		}
		if result.RowCount() != 3 {
			t.Errorf("RowCount() = %d, want 3", result.RowCount())
		}
		if result.Truncated {
			t.Error("Truncated = true for a result at the cap")
		}
	})

	t.Run("row order and columns preserved", func(t *testing.T) {
		rows := &fakeRows{
			columns: []string{"customerid", "total"},
			rows:    [][]any{{1, "a"}, {2, "b"}},
		}

		result, err := materialize(rows, 100)
		if err != nil {
			t.Fatalf("materialize() error = %v", err)
		}
		if len(result.Columns) != 2 || result.Columns[0] != "customerid" || result.Columns[1] != "total" {
			t.Errorf("Columns = %v, want database order", result.Columns)
		}
		if result.Rows[0][0] != 1 || result.Rows[1][0] != 2 {
			t.Errorf("Rows = %v, want insertion order", result.Rows)
		}
	})

	t.Run("values error propagates", func(t *testing.T) {
		rows := &fakeRows{
			columns:   []string{"n"},
			rows:      makeRows(1),
			valuesErr: errors.New("broken value"),
		}

		if _, err := materialize(rows, 100); err == nil {
			t.Error("materialize() = nil error, want row read failure")
		}
	})

	t.Run("deferred query error propagates", func(t *testing.T) {
		rows := &fakeRows{
			columns:  []string{"n"},
			rows:     makeRows(1),
			finalErr: errors.New("connection lost"),
		}

		if _, err := materialize(rows, 100); err == nil {
			t.Error("materialize() = nil error, want deferred failure")
		}
	})
}

func TestAddApplicationName(t *testing.T) {
	t.Run("adds when missing", func(t *testing.T) {
		got, err := addApplicationName("postgres://user@localhost:5432/sales?sslmode=require", "pgEdge Sales Analyst")
		if err != nil {
			t.Fatalf("addApplicationName() error = %v", err)
		}
		if !strings.Contains(got, "application_name=pgEdge+Sales+Analyst") {
			t.Errorf("connection string = %q, want application_name parameter", got)
		}
		if !strings.Contains(got, "sslmode=require") {
			t.Errorf("connection string = %q, lost sslmode parameter", got)
		}
	})

	t.Run("keeps existing value", func(t *testing.T) {
		got, err := addApplicationName("postgres://user@localhost/sales?application_name=custom", "pgEdge Sales Analyst")
		if err != nil {
			t.Fatalf("addApplicationName() error = %v", err)
		}
		if !strings.Contains(got, "application_name=custom") {
			t.Errorf("connection string = %q, want original application_name", got)
		}
	})
}
