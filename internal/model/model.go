//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package model defines the record and table types that flow through the
// sales ETL pipeline, and the error taxonomy shared by its stages.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one row of the source spreadsheet with every field kept as
// the raw cell text. Fields whose column is absent from the source are
// empty.
type RawRecord struct {
	// Row is the 1-based row number in the source sheet (header is row 1).
	Row int

	// DateSerials is set for workbook sources, whose date cells hold
	// spreadsheet serial day numbers rather than text.
	DateSerials bool

	OrderID      string
	OrderDate    string
	ShipDate     string
	ShipMode     string
	CustomerID   string
	CustomerName string
	Segment      string
	Country      string
	Region       string
	State        string
	City         string
	PostalCode   string
	ProductID    string
	Category     string
	SubCategory  string
	ProductName  string
	Sales        string
	Quantity     string
	Discount     string
	Profit       string
}

// CleanRecord is a RawRecord after cleaning: text trimmed, dates parsed and
// measures coerced to numeric types.
type CleanRecord struct {
	Row int

	OrderID string

	// OrderDate is the calendar date of the order at UTC midnight.
	OrderDate time.Time

	// ShipDate is nil when the source value is missing or unparseable.
	ShipDate *time.Time

	ShipMode     string
	CustomerID   string
	CustomerName string
	Segment      string
	Country      string
	Region       string
	State        string
	City         string
	PostalCode   string
	ProductID    string
	Category     string
	SubCategory  string
	ProductName  string

	Sales    decimal.Decimal
	Quantity int64
	Discount decimal.Decimal
	Profit   decimal.Decimal
}

// CustomerKey is the natural key of a customer.
type CustomerKey struct {
	Name    string
	Segment string
}

// ProductKey is the natural key of a product.
type ProductKey struct {
	Category    string
	SubCategory string
	Name        string
}

// DateKey derives the surrogate key of a calendar date (YYYYMMDD).
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// DimCustomer is one row of the customer dimension.
type DimCustomer struct {
	CustomerKey  int
	CustomerName string
	Segment      string

	// CustomerID is the first-seen source identifier; not part of the key.
	CustomerID string
}

// DimProduct is one row of the product dimension.
type DimProduct struct {
	ProductKey  int
	Category    string
	SubCategory string
	ProductName string

	// ProductID is the first-seen source identifier; not part of the key.
	ProductID string
}

// DimDate is one row of the date dimension.
type DimDate struct {
	DateKey   int
	Date      time.Time
	Year      int
	Month     int
	Day       int
	Quarter   int
	MonthName string
	// DayOfWeek counts from Monday = 0.
	DayOfWeek int
	DayName   string
	IsWeekend bool
}

// FactSales is one row of the sales fact table.
type FactSales struct {
	SalesID     int
	OrderID     string
	CustomerKey int
	ProductKey  int
	DateKey     int
	ShipDate    *time.Time
	ShipMode    string
	Country     string
	Region      string
	State       string
	City        string
	PostalCode  string
	Sales       decimal.Decimal
	Quantity    int64
	Discount    decimal.Decimal
	Profit      decimal.Decimal
}

// CustomerMetrics aggregates a customer's sales history.
type CustomerMetrics struct {
	CustomerKey        int
	TotalRevenue       decimal.Decimal
	TotalProfit        decimal.Decimal
	TotalOrders        int
	TotalQuantity      int64
	FirstOrderDate     time.Time
	LastOrderDate      time.Time
	DaysSinceLastOrder int
	AvgOrderValue      decimal.Decimal
	RScore             int
	FScore             int
	MScore             int
	RFMScore           string
}

// MonthlySales aggregates sales per calendar month.
type MonthlySales struct {
	Year              int
	Month             int
	MonthlyRevenue    decimal.Decimal
	MonthlyProfit     decimal.Decimal
	TotalOrders       int
	CumulativeRevenue decimal.Decimal
}

// StarSchema holds the finished tables of a pipeline run.
type StarSchema struct {
	Facts     []FactSales
	Customers []DimCustomer
	Products  []DimProduct
	Dates     []DimDate

	// CustomerMetrics and MonthlySales are nil unless derived metrics
	// were requested.
	CustomerMetrics []CustomerMetrics
	MonthlySales    []MonthlySales
}
