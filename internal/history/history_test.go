/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package history

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLogAppendAndOrder(t *testing.T) {
	log := NewLog()

	for i := 0; i < 3; i++ {
		log.Append(Entry{
			Question:  fmt.Sprintf("question %d", i),
			SQL:       fmt.Sprintf("SELECT %d", i),
			RowCount:  i,
			Timestamp: time.Now(),
		})
	}

	if log.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", log.Len())
	}

	entries := log.Entries()
	for i, entry := range entries {
		if entry.Question != fmt.Sprintf("question %d", i) {
			t.Errorf("entries[%d].Question = %q, want insertion order preserved", i, entry.Question)
		}
	}
}

func TestLogEntriesReturnsCopy(t *testing.T) {
	log := NewLog()
	log.Append(Entry{Question: "original", SQL: "SELECT 1"})

	entries := log.Entries()
	entries[0].Question = "mutated"

	fresh := log.Entries()
	if fresh[0].Question != "original" {
		t.Error("mutating the returned slice changed the log")
	}
}

func TestLogGet(t *testing.T) {
	log := NewLog()
	log.Append(Entry{Question: "first", SQL: "SELECT 1"})
	log.Append(Entry{Question: "second", SQL: "SELECT 2"})

	entry, ok := log.Get(1)
	if !ok {
		t.Fatal("Get(1) = false, want entry")
	}
	if entry.Question != "second" {
		t.Errorf("Get(1).Question = %q, want %q", entry.Question, "second")
	}

	for _, i := range []int{-1, 2, 100} {
		if _, ok := log.Get(i); ok {
			t.Errorf("Get(%d) = true, want false for out-of-range index", i)
		}
	}
}

func TestLogClear(t *testing.T) {
	log := NewLog()
	log.Append(Entry{Question: "q", SQL: "SELECT 1"})
	log.Clear()

	if log.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", log.Len())
	}
	if entries := log.Entries(); len(entries) != 0 {
		t.Errorf("Entries() after Clear has %d entries, want 0", len(entries))
	}
}

func TestLogRecordsFailures(t *testing.T) {
	log := NewLog()
	log.Append(Entry{
		Question: "bad question",
		SQL:      "SELECT nonexistent FROM nowhere",
		Err:      `relation "nowhere" does not exist`,
	})

	entry, ok := log.Get(0)
	if !ok {
		t.Fatal("failed execution was not recorded")
	}
	if entry.Err == "" {
		t.Error("Err is empty, want the database error")
	}
}

func TestEntrySummary(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{name: "zero rows", entry: Entry{RowCount: 0}, want: "0 rows"},
		{name: "one row", entry: Entry{RowCount: 1}, want: "1 row"},
		{name: "many rows", entry: Entry{RowCount: 42}, want: "42 rows"},
		{name: "error wins", entry: Entry{RowCount: 5, Err: "syntax error"}, want: "syntax error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogConcurrentAccess(t *testing.T) {
	log := NewLog()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			log.Append(Entry{Question: fmt.Sprintf("q%d", n), SQL: "SELECT 1"})
		}(i)
		go func() {
			defer wg.Done()
			_ = log.Entries()
		}()
	}
	wg.Wait()

	if log.Len() != 10 {
		t.Errorf("Len() = %d after concurrent appends, want 10", log.Len())
	}
}
