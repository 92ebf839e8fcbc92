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
	"strings"
	"testing"
)

func TestDefaultCatalogTables(t *testing.T) {
	catalog := DefaultCatalog()

	want := []string{"region", "country", "productcategory", "customer", "product", "orderdetail"}
	got := catalog.TableNames()

	if len(got) != len(want) {
		t.Fatalf("TableNames() has %d tables, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TableNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDefaultCatalogForeignKeys(t *testing.T) {
	catalog := DefaultCatalog()

	refs := map[string]map[string]string{
		"country":     {"regionid": "region.regionid"},
		"customer":    {"countryid": "country.countryid"},
		"product":     {"productcategoryid": "productcategory.productcategoryid"},
		"orderdetail": {"customerid": "customer.customerid", "productid": "product.productid"},
	}

	for tableName, columns := range refs {
		table, ok := catalog.Table(tableName)
		if !ok {
			t.Fatalf("Table(%q) not found", tableName)
		}
		for colName, wantRef := range columns {
			found := false
			for _, col := range table.Columns {
				if col.Name == colName {
					found = true
					if col.References != wantRef {
						t.Errorf("%s.%s References = %q, want %q", tableName, colName, col.References, wantRef)
					}
				}
			}
			if !found {
				t.Errorf("column %s.%s not found", tableName, colName)
			}
		}
	}
}

func TestTableLookup(t *testing.T) {
	catalog := DefaultCatalog()

	if _, ok := catalog.Table("orderdetail"); !ok {
		t.Error("Table(orderdetail) = false, want the fact table")
	}
	if _, ok := catalog.Table("nonexistent"); ok {
		t.Error("Table(nonexistent) = true, want false")
	}
}

func TestContext(t *testing.T) {
	catalog := DefaultCatalog()
	context := catalog.Context()

	t.Run("deterministic", func(t *testing.T) {
		if context != DefaultCatalog().Context() {
			t.Error("Context() is not deterministic")
		}
	})

	t.Run("section headings in order", func(t *testing.T) {
		dimIdx := strings.Index(context, "DIMENSION/LOOKUP TABLES:")
		entityIdx := strings.Index(context, "ENTITY TABLES:")
		factIdx := strings.Index(context, "FACT TABLE:")

		if dimIdx == -1 || entityIdx == -1 || factIdx == -1 {
			t.Fatal("Context() is missing a section heading")
		}
		if !(dimIdx < entityIdx && entityIdx < factIdx) {
			t.Error("section headings are out of order")
		}
	})

	t.Run("all tables present", func(t *testing.T) {
		for _, name := range catalog.TableNames() {
			if !strings.Contains(context, "- "+name+" (") {
				t.Errorf("Context() missing table %q", name)
			}
		}
	})

	t.Run("foreign keys annotated", func(t *testing.T) {
		for _, ref := range []string{
			"(FK to region.regionid)",
			"(FK to country.countryid)",
			"(FK to productcategory.productcategoryid)",
			"(FK to customer.customerid)",
			"(FK to product.productid)",
		} {
			if !strings.Contains(context, ref) {
				t.Errorf("Context() missing annotation %q", ref)
			}
		}
	})

	t.Run("fact table row hint", func(t *testing.T) {
		if !strings.Contains(context, "approximately 621806 rows") {
			t.Error("Context() missing the fact table row count hint")
		}
	})

	t.Run("guidance notes", func(t *testing.T) {
		for _, fragment := range []string{
			"IMPORTANT NOTES:",
			"productunitprice * quantityordered",
			"EXTRACT(QUARTER FROM orderdate)",
			"firstname || ' ' || lastname",
			"POSTGRESQL GROUP BY RULES (CRITICAL):",
		} {
			if !strings.Contains(context, fragment) {
				t.Errorf("Context() missing fragment %q", fragment)
			}
		}
	})
}
