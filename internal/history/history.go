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
	"time"
)

// Entry records one executed query attempt: the question that produced the
// SQL, the SQL that actually ran (possibly user-edited), and how it went.
type Entry struct {
	Question  string
	SQL       string
	RowCount  int
	Err       string
	Timestamp time.Time
}

// Summary renders the result column of the history table: a row count for
// successful runs, the database error otherwise.
func (e Entry) Summary() string {
	if e.Err != "" {
		return e.Err
	}
	if e.RowCount == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", e.RowCount)
}

// Log is the append-only record of query attempts for one session.
// Entries are stored in insertion order and never reordered or removed
// except by Clear. Failed executions are recorded alongside successes.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLog creates an empty history log
func NewLog() *Log {
	return &Log{}
}

// Append adds an entry at the end of the log
func (l *Log) Append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the log in insertion order (oldest first).
// Display layers that want most-recent-first reverse the copy themselves.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Entry, len(l.entries))
	copy(result, l.entries)
	return result
}

// Get returns the entry at index i (insertion order)
func (l *Log) Get(i int) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i < 0 || i >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[i], true
}

// Len returns the number of recorded entries
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// Clear removes all entries
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
}
