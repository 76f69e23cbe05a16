//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cleaner normalizes raw sales records into typed records.
//
// The cleaning policy is fixed:
//   - all text fields are trimmed of surrounding whitespace
//   - order_id and order_date are required; a record missing either, or
//     with an unparseable order_date, is dropped and reported
//   - ship_date is optional; missing or unparseable values become null
//   - sales, discount and profit are decimals and quantity an integer;
//     missing or non-numeric values become zero and are counted per
//     column, and never cause a record to be dropped
package cleaner

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/model"
	"github.com/pgEdge/pgedge-sales-etl/internal/schema"
)

// Report summarizes a cleaning pass.
type Report struct {
	// Input is the number of records received.
	Input int

	// Cleaned is the number of records passed on.
	Cleaned int

	// Dropped is the number of records removed for missing required fields.
	Dropped int

	// Errors holds one entry per dropped record.
	Errors []model.CleaningError

	// Defaulted counts, per column, the values replaced with zero.
	Defaulted map[string]int
}

// Clean applies the cleaning policy to records, preserving their order.
func Clean(records []model.RawRecord) ([]model.CleanRecord, *Report) {
	report := &Report{
		Input:     len(records),
		Defaulted: make(map[string]int),
	}

	cleaned := make([]model.CleanRecord, 0, len(records))
	for _, raw := range records {
		rec, cerr := cleanRecord(raw, report)
		if cerr != nil {
			report.Dropped++
			report.Errors = append(report.Errors, *cerr)
			logging.Debug().
				Int("row", cerr.Row).
				Str("field", cerr.Field).
				Str("reason", cerr.Reason).
				Msg("Dropped record")
			continue
		}
		cleaned = append(cleaned, rec)
	}
	report.Cleaned = len(cleaned)

	event := logging.Info().
		Int("input", report.Input).
		Int("cleaned", report.Cleaned).
		Int("dropped", report.Dropped)
	for col, n := range report.Defaulted {
		event = event.Int("defaulted_"+col, n)
	}
	event.Msg("Cleaned records")

	return cleaned, report
}

func cleanRecord(raw model.RawRecord, report *Report) (model.CleanRecord, *model.CleaningError) {
	orderID := strings.TrimSpace(raw.OrderID)
	if orderID == "" {
		return model.CleanRecord{}, &model.CleaningError{
			Row: raw.Row, Field: string(schema.OrderID), Reason: "missing",
		}
	}

	orderDateText := strings.TrimSpace(raw.OrderDate)
	if orderDateText == "" {
		return model.CleanRecord{}, &model.CleaningError{
			Row: raw.Row, Field: string(schema.OrderDate), Reason: "missing",
		}
	}
	orderDate, ok := parseDateCell(raw, orderDateText)
	if !ok {
		return model.CleanRecord{}, &model.CleaningError{
			Row: raw.Row, Field: string(schema.OrderDate), Reason: "unparseable date " + orderDateText,
		}
	}

	rec := model.CleanRecord{
		Row:          raw.Row,
		OrderID:      orderID,
		OrderDate:    orderDate,
		ShipMode:     strings.TrimSpace(raw.ShipMode),
		CustomerID:   strings.TrimSpace(raw.CustomerID),
		CustomerName: strings.TrimSpace(raw.CustomerName),
		Segment:      strings.TrimSpace(raw.Segment),
		Country:      strings.TrimSpace(raw.Country),
		Region:       strings.TrimSpace(raw.Region),
		State:        strings.TrimSpace(raw.State),
		City:         strings.TrimSpace(raw.City),
		PostalCode:   strings.TrimSpace(raw.PostalCode),
		ProductID:    strings.TrimSpace(raw.ProductID),
		Category:     strings.TrimSpace(raw.Category),
		SubCategory:  strings.TrimSpace(raw.SubCategory),
		ProductName:  strings.TrimSpace(raw.ProductName),
	}

	if shipDate, ok := parseDateCell(raw, raw.ShipDate); ok {
		rec.ShipDate = &shipDate
	}

	rec.Sales = report.decimalOrZero(schema.Sales, raw.Sales)
	rec.Discount = report.decimalOrZero(schema.Discount, raw.Discount)
	rec.Profit = report.decimalOrZero(schema.Profit, raw.Profit)

	if qty, ok := ParseQuantity(raw.Quantity); ok {
		rec.Quantity = qty
	} else {
		report.Defaulted[string(schema.Quantity)]++
	}

	return rec, nil
}

// parseDateCell reads a date cell. Serial day numbers are only dates when
// the record came from a workbook; in text sources they are rejected.
func parseDateCell(raw model.RawRecord, s string) (time.Time, bool) {
	if t, ok := ParseDate(s); ok {
		return t, true
	}
	if raw.DateSerials {
		return ParseSerialDate(s)
	}
	return time.Time{}, false
}

func (r *Report) decimalOrZero(col schema.Column, s string) decimal.Decimal {
	d, ok := ParseDecimal(s)
	if !ok {
		r.Defaulted[string(col)]++
		return decimal.Zero
	}
	return d
}
