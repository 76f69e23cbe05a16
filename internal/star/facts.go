package star

import (
	"fmt"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/model"
)

// Relation names of the star schema, before any table prefix.
const (
	FactSalesRelation       = "Fact_Sales"
	DimCustomerRelation     = "Dim_Customer"
	DimProductRelation      = "Dim_Product"
	DimDateRelation         = "Dim_Date"
	CustomerMetricsRelation = "Customer_Metrics"
	MonthlySalesRelation    = "Monthly_Sales"
)

// BuildFacts produces one FactSales row per cleaned record, in input
// order, resolving each record's natural keys through lookups.
//
// A lookup miss returns a ReferentialIntegrityError. It can only happen
// when lookups were built from a different record set.
func BuildFacts(records []model.CleanRecord, lookups Lookups) ([]model.FactSales, error) {
	facts := make([]model.FactSales, 0, len(records))

	for i, rec := range records {
		ck := model.CustomerKey{Name: rec.CustomerName, Segment: rec.Segment}
		customerKey, ok := lookups.Customers.Lookup(ck)
		if !ok {
			return nil, &model.ReferentialIntegrityError{
				Dimension: DimCustomerRelation,
				Key:       fmt.Sprintf("%s|%s", ck.Name, ck.Segment),
				Row:       rec.Row,
			}
		}

		pk := model.ProductKey{Category: rec.Category, SubCategory: rec.SubCategory, Name: rec.ProductName}
		productKey, ok := lookups.Products.Lookup(pk)
		if !ok {
			return nil, &model.ReferentialIntegrityError{
				Dimension: DimProductRelation,
				Key:       fmt.Sprintf("%s|%s|%s", pk.Category, pk.SubCategory, pk.Name),
				Row:       rec.Row,
			}
		}

		dateKey, ok := lookups.Dates[rec.OrderDate]
		if !ok {
			return nil, &model.ReferentialIntegrityError{
				Dimension: DimDateRelation,
				Key:       rec.OrderDate.Format("2006-01-02"),
				Row:       rec.Row,
			}
		}

		facts = append(facts, model.FactSales{
			SalesID:     i + 1,
			OrderID:     rec.OrderID,
			CustomerKey: customerKey,
			ProductKey:  productKey,
			DateKey:     dateKey,
			ShipDate:    rec.ShipDate,
			ShipMode:    rec.ShipMode,
			Country:     rec.Country,
			Region:      rec.Region,
			State:       rec.State,
			City:        rec.City,
			PostalCode:  rec.PostalCode,
			Sales:       rec.Sales,
			Quantity:    rec.Quantity,
			Discount:    rec.Discount,
			Profit:      rec.Profit,
		})
	}

	logging.Info().
		Int("facts", len(facts)).
		Msg("Built fact table")

	return facts, nil
}
