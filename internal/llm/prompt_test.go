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

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	schemaContext := "TABLES:\n- customer (customerid, firstname)"
	question := "How many customers do we have?"

	prompt := BuildPrompt(question, schemaContext)

	t.Run("contains schema context", func(t *testing.T) {
		if !strings.Contains(prompt, schemaContext) {
			t.Error("prompt does not contain the schema context")
		}
	})

	t.Run("contains the question", func(t *testing.T) {
		if !strings.Contains(prompt, "User Question: "+question) {
			t.Error("prompt does not contain the labeled question")
		}
	})

	t.Run("contains the requirements", func(t *testing.T) {
		for _, fragment := range []string{
			"Generate ONLY the SQL query",
			"default LIMIT 100",
			"GROUP BY clause",
			"Generate the SQL query:",
		} {
			if !strings.Contains(prompt, fragment) {
				t.Errorf("prompt missing fragment %q", fragment)
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		if prompt != BuildPrompt(question, schemaContext) {
			t.Error("identical inputs produced different prompts")
		}
	})

	t.Run("empty question keeps full preamble", func(t *testing.T) {
		p := BuildPrompt("", schemaContext)
		if !strings.Contains(p, "User Question: \n") {
			t.Error("empty question not rendered with its label")
		}
		if !strings.Contains(p, schemaContext) {
			t.Error("schema context missing for empty question")
		}
	})
}
