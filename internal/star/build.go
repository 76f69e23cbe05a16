package star

import (
	"github.com/pgEdge/pgedge-sales-etl/internal/model"
)

// BuildOptions controls a full star schema build.
type BuildOptions struct {
	Options

	// DerivedMetrics adds the Customer_Metrics and Monthly_Sales tables.
	DerivedMetrics bool
}

// Build runs the dimension builder and then the fact builder over the same
// cleaned records and assembles the finished tables.
func Build(records []model.CleanRecord, opts BuildOptions) (*model.StarSchema, *Dimensions, error) {
	dims := BuildDimensions(records, opts.Options)

	facts, err := BuildFacts(records, dims.Lookups)
	if err != nil {
		return nil, nil, err
	}

	schema := &model.StarSchema{
		Facts:     facts,
		Customers: dims.Customers,
		Products:  dims.Products,
		Dates:     dims.Dates,
	}
	if opts.DerivedMetrics {
		schema.CustomerMetrics = BuildCustomerMetrics(facts)
		schema.MonthlySales = BuildMonthlySales(facts)
	}

	return schema, dims, nil
}
