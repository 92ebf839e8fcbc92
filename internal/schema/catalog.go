/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package schema

import (
	"fmt"
	"strings"
)

// TableKind classifies a table's role in the star schema
type TableKind string

const (
	KindDimension TableKind = "dimension"
	KindEntity    TableKind = "entity"
	KindFact      TableKind = "fact"
)

// Column describes a single column, with an optional foreign key reference
// in table.column form
type Column struct {
	Name       string
	Type       string
	References string
}

// TableDescriptor describes one table of the analytics schema
type TableDescriptor struct {
	Name         string
	Kind         TableKind
	Columns      []Column
	RowCountHint int
}

// SchemaDescriptor is the ordered set of tables the prompt is grounded on.
// It is built once at startup and never mutated afterwards.
type SchemaDescriptor struct {
	Tables []TableDescriptor
}

// DefaultCatalog returns the descriptor for the fixed sales star schema:
// three dimension tables, two entity tables, and the orderdetail fact table.
func DefaultCatalog() SchemaDescriptor {
	return SchemaDescriptor{
		Tables: []TableDescriptor{
			{
				Name: "region",
				Kind: KindDimension,
				Columns: []Column{
					{Name: "regionid", Type: "SERIAL PRIMARY KEY"},
					{Name: "region", Type: "TEXT NOT NULL UNIQUE"},
				},
				RowCountHint: 5,
			},
			{
				Name: "country",
				Kind: KindDimension,
				Columns: []Column{
					{Name: "countryid", Type: "SERIAL PRIMARY KEY"},
					{Name: "country", Type: "TEXT NOT NULL UNIQUE"},
					{Name: "regionid", Type: "INTEGER", References: "region.regionid"},
				},
				RowCountHint: 38,
			},
			{
				Name: "productcategory",
				Kind: KindDimension,
				Columns: []Column{
					{Name: "productcategoryid", Type: "SERIAL PRIMARY KEY"},
					{Name: "productcategory", Type: "TEXT NOT NULL UNIQUE"},
					{Name: "productcategorydescription", Type: "TEXT"},
				},
				RowCountHint: 9,
			},
			{
				Name: "customer",
				Kind: KindEntity,
				Columns: []Column{
					{Name: "customerid", Type: "SERIAL PRIMARY KEY"},
					{Name: "firstname", Type: "TEXT NOT NULL"},
					{Name: "lastname", Type: "TEXT NOT NULL"},
					{Name: "address", Type: "TEXT"},
					{Name: "city", Type: "TEXT"},
					{Name: "countryid", Type: "INTEGER", References: "country.countryid"},
				},
				RowCountHint: 1000,
			},
			{
				Name: "product",
				Kind: KindEntity,
				Columns: []Column{
					{Name: "productid", Type: "SERIAL PRIMARY KEY"},
					{Name: "productname", Type: "TEXT NOT NULL UNIQUE"},
					{Name: "productunitprice", Type: "REAL NOT NULL"},
					{Name: "productcategoryid", Type: "INTEGER", References: "productcategory.productcategoryid"},
				},
				RowCountHint: 77,
			},
			{
				Name: "orderdetail",
				Kind: KindFact,
				Columns: []Column{
					{Name: "orderid", Type: "SERIAL PRIMARY KEY"},
					{Name: "customerid", Type: "INTEGER", References: "customer.customerid"},
					{Name: "productid", Type: "INTEGER", References: "product.productid"},
					{Name: "orderdate", Type: "DATE NOT NULL"},
					{Name: "quantityordered", Type: "INTEGER NOT NULL"},
				},
				RowCountHint: 621806,
			},
		},
	}
}

// kindHeading maps a table kind to its section heading in the prompt preamble
func kindHeading(kind TableKind) string {
	switch kind {
	case KindDimension:
		return "DIMENSION/LOOKUP TABLES:"
	case KindEntity:
		return "ENTITY TABLES:"
	case KindFact:
		return "FACT TABLE:"
	default:
		return "TABLES:"
	}
}

// Context serializes the catalog into the schema block of the LLM prompt.
// The output is deterministic: table order follows the descriptor, columns
// keep their declared order, and the guidance notes are a fixed suffix.
func (s SchemaDescriptor) Context() string {
	var sb strings.Builder

	sb.WriteString("Database Schema:\n")

	var lastKind TableKind
	for _, table := range s.Tables {
		if table.Kind != lastKind {
			sb.WriteString("\n")
			sb.WriteString(kindHeading(table.Kind))
			sb.WriteString("\n")
			lastKind = table.Kind
		}

		sb.WriteString(fmt.Sprintf("- %s (\n", table.Name))
		for i, col := range table.Columns {
			sb.WriteString(fmt.Sprintf("    %s %s", col.Name, col.Type))
			if col.References != "" {
				sb.WriteString(fmt.Sprintf(" (FK to %s)", col.References))
			}
			if i < len(table.Columns)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("  )")
		if table.Kind == KindFact {
			sb.WriteString(fmt.Sprintf(" -- approximately %d rows", table.RowCountHint))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`
IMPORTANT NOTES:
- Use JOINs to get descriptive values from dimension tables
- orderdate is DATE type - use DATE functions for filtering and grouping
- To calculate revenue: productunitprice * quantityordered
- To get quarters: EXTRACT(QUARTER FROM orderdate)
- To get year: EXTRACT(YEAR FROM orderdate)
- To get month: EXTRACT(MONTH FROM orderdate)
- Always use proper JOINs for foreign key relationships
- Full customer name: firstname || ' ' || lastname

POSTGRESQL GROUP BY RULES (CRITICAL):
- When using aggregate functions (SUM, COUNT, AVG, etc.), ALL non-aggregated columns in SELECT must be in GROUP BY
- Correct: GROUP BY c.customerid, c.firstname, c.lastname
- Wrong: GROUP BY c.customerid (if selecting firstname and lastname)
`)

	return sb.String()
}

// Table returns the descriptor for a named table, if present
func (s SchemaDescriptor) Table(name string) (TableDescriptor, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableDescriptor{}, false
}

// TableNames returns the table names in catalog order
func (s SchemaDescriptor) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}
