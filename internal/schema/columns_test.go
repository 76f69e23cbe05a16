//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package schema

import (
	"testing"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Order ID", "order_id"},
		{"  Sub-Category ", "sub_category"},
		{"\uFEFFRow ID", "row_id"},
		{"Postal Code", "postal_code"},
		{"sales", "sales"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeColumn(tt.input); got != tt.want {
				t.Errorf("NormalizeColumn(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveSuperstoreHeader(t *testing.T) {
	header := []string{
		"Row ID", "Order ID", "Order Date", "Ship Date", "Ship Mode",
		"Customer ID", "Customer Name", "Segment", "Country", "City",
		"State", "Postal Code", "Region", "Product ID", "Category",
		"Sub-Category", "Product Name", "Sales", "Quantity", "Discount", "Profit",
	}

	m := Resolve(header)

	if missing := m.Missing(); len(missing) != 0 {
		t.Fatalf("Expected no missing columns, got %v", missing)
	}
	if m[OrderID] != 1 {
		t.Errorf("Expected order_id at 1, got %d", m[OrderID])
	}
	if m[SubCategory] != 15 {
		t.Errorf("Expected sub_category at 15, got %d", m[SubCategory])
	}
	if m[Profit] != 20 {
		t.Errorf("Expected profit at 20, got %d", m[Profit])
	}
}

func TestResolveAliases(t *testing.T) {
	m := Resolve([]string{"OrderID", "orderdate", "Customer", "Segment",
		"Category", "SubCategory", "Product", "Sales Amount", "Qty", "Zip"})

	if missing := m.Missing(); len(missing) != 0 {
		t.Fatalf("Expected aliases to resolve, missing %v", missing)
	}
	if m[Quantity] != 8 {
		t.Errorf("Expected quantity at 8, got %d", m[Quantity])
	}
	if m[PostalCode] != 9 {
		t.Errorf("Expected postal_code at 9, got %d", m[PostalCode])
	}
	if m[Profit] != -1 {
		t.Errorf("Expected profit absent (-1), got %d", m[Profit])
	}
}

func TestMissingRequired(t *testing.T) {
	m := Resolve([]string{"Order ID", "Customer Name"})
	missing := m.Missing()

	want := map[Column]bool{
		OrderDate: true, Segment: true, Category: true,
		SubCategory: true, ProductName: true, Sales: true,
	}
	if len(missing) != len(want) {
		t.Fatalf("Expected %d missing columns, got %v", len(want), missing)
	}
	for _, col := range missing {
		if !want[col] {
			t.Errorf("Unexpected missing column %s", col)
		}
	}
}

func TestRecordPadsShortRows(t *testing.T) {
	m := Resolve(Header())
	rec := m.Record(2, []string{"CA-1", "2016-11-08"})

	if rec.Row != 2 {
		t.Errorf("Expected row 2, got %d", rec.Row)
	}
	if rec.OrderID != "CA-1" || rec.OrderDate != "2016-11-08" {
		t.Errorf("Unexpected leading fields: %+v", rec)
	}
	if rec.Profit != "" || rec.CustomerName != "" {
		t.Errorf("Expected missing cells to be empty: %+v", rec)
	}
}
