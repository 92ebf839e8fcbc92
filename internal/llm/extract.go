/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package llm

import "strings"

// Extraction is the result of pulling a single SQL statement out of
// free-form model output. Either a statement was found or it was not;
// callers never execute anything when Found is false.
type Extraction struct {
	Found bool
	SQL   string
}

// sqlVerbs are the statement keywords that mark the start of SQL in
// otherwise unstructured text. Write verbs are recognized here so the
// executor's statement guard can reject them with a precise message
// instead of this layer silently dropping them.
var sqlVerbs = []string{
	"SELECT",
	"WITH",
	"INSERT",
	"UPDATE",
	"DELETE",
	"CREATE",
	"ALTER",
	"DROP",
	"EXPLAIN",
	"VALUES",
	"TABLE",
	"SHOW",
}

// ExtractSQL applies the deterministic extraction rule to raw model output:
// the first fenced code block wins; failing that, the first line beginning
// with a recognized SQL verb starts the statement. Conversational filler
// before and after the statement is discarded. The returned SQL is a single
// whitespace-normalized line without comments, cut at the first semicolon.
func ExtractSQL(raw string) Extraction {
	if block, ok := firstFencedBlock(raw); ok {
		if sql := cleanStatement(block); sql != "" {
			return Extraction{Found: true, SQL: sql}
		}
	}

	if sql := cleanStatement(raw); sql != "" {
		return Extraction{Found: true, SQL: sql}
	}

	return Extraction{}
}

// firstFencedBlock returns the contents of the first ``` block, if any.
// A language tag on the opening fence (```sql) is skipped.
func firstFencedBlock(input string) (string, bool) {
	start := strings.Index(input, "```")
	if start == -1 {
		return "", false
	}

	rest := input[start+3:]

	// Skip the language tag up to the end of the opening line
	if nl := strings.Index(rest, "\n"); nl != -1 {
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || isIdentifier(tag) {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}

	return rest[:end], true
}

// isIdentifier reports whether s looks like a fence language tag
func isIdentifier(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return len(s) > 0
}

// startsWithSQLVerb reports whether an upper-cased line begins a statement
func startsWithSQLVerb(upperLine string) bool {
	for _, verb := range sqlVerbs {
		if strings.HasPrefix(upperLine, verb+" ") || upperLine == verb ||
			strings.HasPrefix(upperLine, verb+"(") {
			return true
		}
	}
	return false
}

// cleanStatement removes markdown leftovers, comments, and explanatory text
// around a SQL statement and collapses it onto one normalized line
func cleanStatement(input string) string {
	input = strings.TrimSpace(input)

	// Strip stray fences the block scan may have left behind
	if after, found := strings.CutPrefix(input, "```sql"); found {
		input = after
	} else if after, found := strings.CutPrefix(input, "```"); found {
		input = after
	}
	input = strings.TrimSuffix(input, "```")
	input = strings.TrimSpace(input)

	// Remove multi-line comments /* ... */ before splitting lines
	for {
		start := strings.Index(input, "/*")
		if start == -1 {
			break
		}
		end := strings.Index(input[start:], "*/")
		if end == -1 {
			break
		}
		end += start + 2
		input = input[:start] + " " + input[end:]
	}

	lines := strings.Split(input, "\n")
	var sqlLines []string
	foundSQL := false
	hitSemicolon := false

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		// Skip single-line comments
		if strings.HasPrefix(line, "--") {
			continue
		}

		// Remove inline comments
		if idx := strings.Index(line, "--"); idx > 0 {
			line = strings.TrimSpace(line[:idx])
		}

		upperLine := strings.ToUpper(line)
		isSQLStart := startsWithSQLVerb(upperLine)

		if isSQLStart {
			foundSQL = true
		}

		// Leading prose is discarded whole, semicolons and all; the
		// statement-end cut only applies once the statement has started
		if !foundSQL {
			continue
		}

		if strings.Contains(line, ";") {
			parts := strings.SplitN(line, ";", 2)
			line = strings.TrimSpace(parts[0])
			upperLine = strings.ToUpper(line)
			hitSemicolon = true
		}

		if line != "" {
			// Once the statement has started, a line of trailing prose ends it
			if !isSQLStart && (strings.HasPrefix(upperLine, "THIS ") ||
				strings.HasPrefix(upperLine, "THE ") ||
				strings.HasPrefix(upperLine, "WILL ") ||
				strings.HasPrefix(upperLine, "RETURNS ") ||
				strings.HasPrefix(upperLine, "NOTE:") ||
				strings.HasPrefix(upperLine, "EXPLANATION:")) {
				break
			}

			sqlLines = append(sqlLines, line)
		}

		if hitSemicolon {
			break
		}
	}

	result := strings.Join(sqlLines, " ")
	result = strings.TrimSpace(result)
	result = strings.TrimSuffix(result, "```")

	// Normalize whitespace - replace multiple spaces with single space
	result = strings.Join(strings.Fields(result), " ")

	return result
}
