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

import "fmt"

// promptTemplate is the fixed instructional frame around the schema block and
// the user's question. Changing it changes every prompt, so the tests pin it.
const promptTemplate = `You are a PostgreSQL expert. Given the following database schema and a user's question, generate a valid PostgreSQL query.

%s

User Question: %s

Requirements:
1. Generate ONLY the SQL query that I can directly use. No other response.
2. Use proper JOINs to get descriptive names from lookup tables
3. Use appropriate aggregations (COUNT, AVG, SUM, etc.) when needed
4. Add LIMIT clauses for queries that might return many rows (default LIMIT 100)
5. Use proper date/time functions for DATE columns
6. Make sure the query is syntactically correct for PostgreSQL
7. Add helpful column aliases using AS
8. CRITICAL: When using aggregate functions, include ALL non-aggregated columns in GROUP BY clause

Generate the SQL query:`

// BuildPrompt assembles the text payload sent to the completion service.
// Pure function: identical inputs always yield a byte-identical prompt, and
// an empty question still produces the full schema preamble.
func BuildPrompt(question, schemaContext string) string {
	return fmt.Sprintf(promptTemplate, schemaContext, question)
}
