//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/pgEdge/pgedge-sales-etl/internal/model"
)

const superstoreCSV = `Row ID,Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit
1,CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-BO-10001798,Furniture,Bookcases,Bush Somerset Collection Bookcase,261.96,2,0,41.9136
,,,,,,,,,,,,,,,,,,,,
2,CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-CH-10000454,Furniture,Chairs,"Hon Deluxe Fabric Upholstered Stacking Chairs, Rounded Back",731.94,3,0,219.582
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatalf("Failed to rename sheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("Failed to build cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("Failed to write row %d: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "orders.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save workbook: %v", err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "superstore.csv", superstoreCSV)

	records, err := Load(path, Options{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records (blank row skipped), got %d", len(records))
	}

	first := records[0]
	if first.Row != 2 {
		t.Errorf("Expected first record at row 2, got %d", first.Row)
	}
	if first.OrderID != "CA-2016-152156" {
		t.Errorf("Unexpected order id %q", first.OrderID)
	}
	if first.SubCategory != "Bookcases" {
		t.Errorf("Unexpected sub-category %q", first.SubCategory)
	}
	if first.Profit != "41.9136" {
		t.Errorf("Unexpected profit %q", first.Profit)
	}

	if first.DateSerials {
		t.Error("CSV records must not accept serial dates")
	}

	second := records[1]
	if second.Row != 4 {
		t.Errorf("Expected second record at row 4, got %d", second.Row)
	}
	if !strings.Contains(second.ProductName, "Rounded Back") {
		t.Errorf("Quoted product name not preserved: %q", second.ProductName)
	}
}

func TestLoadWorkbook(t *testing.T) {
	path := writeWorkbook(t, "Orders", [][]any{
		{"Order ID", "Order Date", "Customer Name", "Segment", "Category",
			"Sub-Category", "Product Name", "Sales", "Quantity"},
		{"US-2017-1", "2017-03-01", "Alice", "Consumer", "Technology",
			"Phones", "Phone X", 120.5, 2},
	})

	records, err := Load(path, Options{Sheet: "Orders"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.CustomerName != "Alice" || rec.Segment != "Consumer" {
		t.Errorf("Unexpected customer fields: %+v", rec)
	}
	if rec.Sales != "120.5" {
		t.Errorf("Expected raw sales 120.5, got %q", rec.Sales)
	}
	if rec.Quantity != "2" {
		t.Errorf("Expected raw quantity 2, got %q", rec.Quantity)
	}
	if rec.Profit != "" {
		t.Errorf("Expected absent profit column to be empty, got %q", rec.Profit)
	}
	if !rec.DateSerials {
		t.Error("Expected workbook records to accept serial dates")
	}
}

func TestLoadErrors(t *testing.T) {
	workbook := writeWorkbook(t, "Orders", [][]any{{"Order ID"}})

	tests := []struct {
		name       string
		path       string
		opts       Options
		wantFormat bool
	}{
		{
			name: "missing file",
			path: filepath.Join(t.TempDir(), "nope.xlsx"),
		},
		{
			name:       "directory",
			path:       t.TempDir(),
			wantFormat: true,
		},
		{
			name:       "unsupported extension",
			path:       writeFile(t, "sales.json", "{}"),
			wantFormat: true,
		},
		{
			name:       "corrupt workbook",
			path:       writeFile(t, "broken.xlsx", "not a zip archive"),
			wantFormat: true,
		},
		{
			name:       "missing sheet",
			path:       workbook,
			opts:       Options{Sheet: "Returns"},
			wantFormat: true,
		},
		{
			name:       "missing required columns",
			path:       writeFile(t, "partial.csv", "Order ID,Customer Name\n1,Alice\n"),
			wantFormat: true,
		},
		{
			name:       "empty file",
			path:       writeFile(t, "empty.csv", ""),
			wantFormat: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path, tt.opts)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}

			var formatErr *model.SourceFormatError
			var notFoundErr *model.SourceNotFoundError
			if tt.wantFormat && !errors.As(err, &formatErr) {
				t.Errorf("Expected SourceFormatError, got %T: %v", err, err)
			}
			if !tt.wantFormat && !errors.As(err, &notFoundErr) {
				t.Errorf("Expected SourceNotFoundError, got %T: %v", err, err)
			}
		})
	}
}
