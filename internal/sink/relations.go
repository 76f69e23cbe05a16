package sink

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pgEdge/pgedge-sales-etl/internal/model"
	"github.com/pgEdge/pgedge-sales-etl/internal/star"
)

const dateLayout = "2006-01-02"

// ColumnType is the storage class of a relation column. Each store maps
// it to its own SQL type.
type ColumnType int

const (
	Integer ColumnType = iota
	Numeric
	Text
	Date
	Boolean
)

// Column describes one column of a relation.
type Column struct {
	Name string
	Type ColumnType
}

// Relation is a named table ready to be written.
type Relation struct {
	// Name is the final relation name, including any table prefix.
	Name    string
	Columns []Column

	// Key is the primary key column, or empty when the relation has none.
	Key string

	// Rows hold one value per column: int64, float64, string, bool,
	// time.Time or nil.
	Rows [][]any
}

// ColumnNames returns the relation's column names in order.
func (r Relation) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// TableName applies a table prefix to a relation name.
func TableName(prefix, relation string) string {
	return prefix + relation
}

// RelationNames lists the base relation names a run can write.
func RelationNames(derivedMetrics bool) []string {
	names := []string{
		star.DimCustomerRelation,
		star.DimProductRelation,
		star.DimDateRelation,
		star.FactSalesRelation,
	}
	if derivedMetrics {
		names = append(names, star.CustomerMetricsRelation, star.MonthlySalesRelation)
	}
	return names
}

// Relations converts a star schema into the relations to persist.
// Dimensions come first, then the fact table, then any derived tables.
func Relations(schema *model.StarSchema, prefix string) []Relation {
	relations := []Relation{
		customerRelation(prefix, schema.Customers),
		productRelation(prefix, schema.Products),
		dateRelation(prefix, schema.Dates),
		factRelation(prefix, schema.Facts),
	}
	if schema.CustomerMetrics != nil {
		relations = append(relations, customerMetricsRelation(prefix, schema.CustomerMetrics))
	}
	if schema.MonthlySales != nil {
		relations = append(relations, monthlySalesRelation(prefix, schema.MonthlySales))
	}
	return relations
}

// StaleRelations lists the prefixed relation names a run can write that
// are absent from relations. Replacing with these dropped keeps derived
// tables from an earlier run from outliving the star schema they describe.
func StaleRelations(prefix string, relations []Relation) []string {
	written := make(map[string]bool, len(relations))
	for _, rel := range relations {
		written[rel.Name] = true
	}

	var stale []string
	for _, base := range RelationNames(true) {
		if name := TableName(prefix, base); !written[name] {
			stale = append(stale, name)
		}
	}
	return stale
}

func customerRelation(prefix string, rows []model.DimCustomer) Relation {
	rel := Relation{
		Name: TableName(prefix, star.DimCustomerRelation),
		Columns: []Column{
			{"customer_key", Integer},
			{"customer_name", Text},
			{"segment", Text},
			{"customer_id", Text},
		},
		Key:  "customer_key",
		Rows: make([][]any, len(rows)),
	}
	for i, c := range rows {
		rel.Rows[i] = []any{int64(c.CustomerKey), c.CustomerName, c.Segment, c.CustomerID}
	}
	return rel
}

func productRelation(prefix string, rows []model.DimProduct) Relation {
	rel := Relation{
		Name: TableName(prefix, star.DimProductRelation),
		Columns: []Column{
			{"product_key", Integer},
			{"category", Text},
			{"sub_category", Text},
			{"product_name", Text},
			{"product_id", Text},
		},
		Key:  "product_key",
		Rows: make([][]any, len(rows)),
	}
	for i, p := range rows {
		rel.Rows[i] = []any{int64(p.ProductKey), p.Category, p.SubCategory, p.ProductName, p.ProductID}
	}
	return rel
}

func dateRelation(prefix string, rows []model.DimDate) Relation {
	rel := Relation{
		Name: TableName(prefix, star.DimDateRelation),
		Columns: []Column{
			{"date_key", Integer},
			{"date", Date},
			{"year", Integer},
			{"month", Integer},
			{"day", Integer},
			{"quarter", Integer},
			{"month_name", Text},
			{"day_of_week", Integer},
			{"day_name", Text},
			{"is_weekend", Boolean},
		},
		Key:  "date_key",
		Rows: make([][]any, len(rows)),
	}
	for i, d := range rows {
		rel.Rows[i] = []any{
			int64(d.DateKey), d.Date, int64(d.Year), int64(d.Month), int64(d.Day),
			int64(d.Quarter), d.MonthName, int64(d.DayOfWeek), d.DayName, d.IsWeekend,
		}
	}
	return rel
}

func factRelation(prefix string, rows []model.FactSales) Relation {
	rel := Relation{
		Name: TableName(prefix, star.FactSalesRelation),
		Columns: []Column{
			{"sales_id", Integer},
			{"order_id", Text},
			{"customer_key", Integer},
			{"product_key", Integer},
			{"date_key", Integer},
			{"ship_date", Date},
			{"ship_mode", Text},
			{"country", Text},
			{"region", Text},
			{"state", Text},
			{"city", Text},
			{"postal_code", Text},
			{"sales", Numeric},
			{"quantity", Integer},
			{"discount", Numeric},
			{"profit", Numeric},
		},
		Key:  "sales_id",
		Rows: make([][]any, len(rows)),
	}
	for i, f := range rows {
		var shipDate any
		if f.ShipDate != nil {
			shipDate = *f.ShipDate
		}
		rel.Rows[i] = []any{
			int64(f.SalesID), f.OrderID, int64(f.CustomerKey), int64(f.ProductKey), int64(f.DateKey),
			shipDate, f.ShipMode, f.Country, f.Region, f.State, f.City, f.PostalCode,
			f.Sales.InexactFloat64(), f.Quantity, f.Discount.InexactFloat64(), f.Profit.InexactFloat64(),
		}
	}
	return rel
}

func customerMetricsRelation(prefix string, rows []model.CustomerMetrics) Relation {
	rel := Relation{
		Name: TableName(prefix, star.CustomerMetricsRelation),
		Columns: []Column{
			{"customer_key", Integer},
			{"total_revenue", Numeric},
			{"total_profit", Numeric},
			{"total_orders", Integer},
			{"total_quantity", Integer},
			{"first_order_date", Date},
			{"last_order_date", Date},
			{"days_since_last_order", Integer},
			{"avg_order_value", Numeric},
			{"r_score", Integer},
			{"f_score", Integer},
			{"m_score", Integer},
			{"rfm_score", Text},
		},
		Key:  "customer_key",
		Rows: make([][]any, len(rows)),
	}
	for i, m := range rows {
		rel.Rows[i] = []any{
			int64(m.CustomerKey), m.TotalRevenue.InexactFloat64(), m.TotalProfit.InexactFloat64(),
			int64(m.TotalOrders), m.TotalQuantity, m.FirstOrderDate, m.LastOrderDate,
			int64(m.DaysSinceLastOrder), m.AvgOrderValue.InexactFloat64(),
			int64(m.RScore), int64(m.FScore), int64(m.MScore), m.RFMScore,
		}
	}
	return rel
}

func monthlySalesRelation(prefix string, rows []model.MonthlySales) Relation {
	rel := Relation{
		Name: TableName(prefix, star.MonthlySalesRelation),
		Columns: []Column{
			{"year", Integer},
			{"month", Integer},
			{"monthly_revenue", Numeric},
			{"monthly_profit", Numeric},
			{"total_orders", Integer},
			{"cumulative_revenue", Numeric},
		},
		Rows: make([][]any, len(rows)),
	}
	for i, m := range rows {
		rel.Rows[i] = []any{
			int64(m.Year), int64(m.Month), m.MonthlyRevenue.InexactFloat64(),
			m.MonthlyProfit.InexactFloat64(), int64(m.TotalOrders), m.CumulativeRevenue.InexactFloat64(),
		}
	}
	return rel
}

// FormatValue renders a stored value as text for export. Booleans render
// as 1 or 0 whichever store they come from.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.Format(dateLayout)
	default:
		return fmt.Sprint(x)
	}
}
