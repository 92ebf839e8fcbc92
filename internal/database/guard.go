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
	"fmt"
	"strings"
)

// readOnlyVerbs are the statement keywords the guard accepts. The session
// is already read-only via default_transaction_read_only; the guard exists
// to reject write statements with a clear message before they are sent.
var readOnlyVerbs = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"EXPLAIN": true,
	"VALUES":  true,
	"TABLE":   true,
	"SHOW":    true,
}

// CheckReadOnly returns an error unless the statement's first keyword,
// after leading comments are stripped, is a read-only verb
func CheckReadOnly(sql string) error {
	keyword := firstKeyword(sql)
	if keyword == "" {
		return fmt.Errorf("empty SQL statement")
	}

	if !readOnlyVerbs[keyword] {
		return fmt.Errorf("statement type %s is not allowed; only read-only queries may run", keyword)
	}

	return nil
}

// firstKeyword returns the upper-cased first word of the statement,
// skipping leading -- and /* */ comments
func firstKeyword(sql string) string {
	s := strings.TrimSpace(sql)

	for {
		switch {
		case strings.HasPrefix(s, "--"):
			nl := strings.Index(s, "\n")
			if nl == -1 {
				return ""
			}
			s = strings.TrimSpace(s[nl+1:])
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s, "*/")
			if end == -1 {
				return ""
			}
			s = strings.TrimSpace(s[end+2:])
		default:
			fields := strings.Fields(s)
			if len(fields) == 0 {
				return ""
			}
			// A statement like "SELECT(1)" has no space after the verb
			word := fields[0]
			if idx := strings.IndexAny(word, "(;"); idx > 0 {
				word = word[:idx]
			}
			return strings.ToUpper(word)
		}
	}
}
