//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package schema defines the fixed column layout of a sales source sheet
// and maps arbitrary spreadsheet headers onto it.
package schema

import (
	"strings"

	"github.com/pgEdge/pgedge-sales-etl/internal/model"
)

// Column is a logical source column.
type Column string

// Logical columns, in the order they appear in a Superstore export.
const (
	OrderID      Column = "order_id"
	OrderDate    Column = "order_date"
	ShipDate     Column = "ship_date"
	ShipMode     Column = "ship_mode"
	CustomerID   Column = "customer_id"
	CustomerName Column = "customer_name"
	Segment      Column = "segment"
	Country      Column = "country"
	City         Column = "city"
	State        Column = "state"
	PostalCode   Column = "postal_code"
	Region       Column = "region"
	ProductID    Column = "product_id"
	Category     Column = "category"
	SubCategory  Column = "sub_category"
	ProductName  Column = "product_name"
	Sales        Column = "sales"
	Quantity     Column = "quantity"
	Discount     Column = "discount"
	Profit       Column = "profit"
)

// Columns lists every logical column.
var Columns = []Column{
	OrderID, OrderDate, ShipDate, ShipMode,
	CustomerID, CustomerName, Segment,
	Country, City, State, PostalCode, Region,
	ProductID, Category, SubCategory, ProductName,
	Sales, Quantity, Discount, Profit,
}

// Required lists the columns a source header must provide.
var Required = []Column{
	OrderID, OrderDate, CustomerName, Segment,
	Category, SubCategory, ProductName, Sales,
}

// aliases holds accepted normalized header names per logical column,
// in order of preference.
var aliases = map[Column][]string{
	OrderID:      {"order_id", "orderid", "order"},
	OrderDate:    {"order_date", "orderdate"},
	ShipDate:     {"ship_date", "shipdate"},
	ShipMode:     {"ship_mode", "shipmode"},
	CustomerID:   {"customer_id", "customerid"},
	CustomerName: {"customer_name", "customername", "customer"},
	Segment:      {"segment"},
	Country:      {"country", "country/region", "country_region"},
	City:         {"city"},
	State:        {"state", "state/province", "state_province"},
	PostalCode:   {"postal_code", "postalcode", "zip", "zipcode", "zip_code"},
	Region:       {"region"},
	ProductID:    {"product_id", "productid"},
	Category:     {"category"},
	SubCategory:  {"sub_category", "subcategory"},
	ProductName:  {"product_name", "productname", "product"},
	Sales:        {"sales", "sales_amount"},
	Quantity:     {"quantity", "qty"},
	Discount:     {"discount"},
	Profit:       {"profit"},
}

// NormalizeColumn converts a header cell to lowercase snake_case.
func NormalizeColumn(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

// Mapping maps logical columns to header positions. A column absent from
// the header maps to -1.
type Mapping map[Column]int

// Resolve builds a Mapping from a header row.
func Resolve(header []string) Mapping {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeColumn(h)
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	m := make(Mapping, len(Columns))
	for _, col := range Columns {
		m[col] = -1
		for _, candidate := range aliases[col] {
			if i, ok := positions[candidate]; ok {
				m[col] = i
				break
			}
		}
	}
	return m
}

// Missing returns the required columns the mapping could not resolve.
func (m Mapping) Missing() []Column {
	var missing []Column
	for _, col := range Required {
		if m[col] < 0 {
			missing = append(missing, col)
		}
	}
	return missing
}

// Record builds a RawRecord from a data row. Short rows are padded with
// empty values.
func (m Mapping) Record(rowNum int, cells []string) model.RawRecord {
	get := func(col Column) string {
		i := m[col]
		if i < 0 || i >= len(cells) {
			return ""
		}
		return cells[i]
	}

	return model.RawRecord{
		Row:          rowNum,
		OrderID:      get(OrderID),
		OrderDate:    get(OrderDate),
		ShipDate:     get(ShipDate),
		ShipMode:     get(ShipMode),
		CustomerID:   get(CustomerID),
		CustomerName: get(CustomerName),
		Segment:      get(Segment),
		Country:      get(Country),
		Region:       get(Region),
		State:        get(State),
		City:         get(City),
		PostalCode:   get(PostalCode),
		ProductID:    get(ProductID),
		Category:     get(Category),
		SubCategory:  get(SubCategory),
		ProductName:  get(ProductName),
		Sales:        get(Sales),
		Quantity:     get(Quantity),
		Discount:     get(Discount),
		Profit:       get(Profit),
	}
}

// Header returns the canonical header row, as written by the sample
// generator and accepted by Resolve.
func Header() []string {
	names := make([]string, len(Columns))
	for i, col := range Columns {
		names[i] = string(col)
	}
	return names
}
