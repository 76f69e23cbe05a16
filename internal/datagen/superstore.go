package datagen

import (
	"fmt"
	"math"
	"time"

	"github.com/pgEdge/pgedge-sales-etl/internal/schema"
)

// SampleConfig controls sample generation.
type SampleConfig struct {
	// Rows is the number of order lines.
	Rows int

	// Seed makes the sample reproducible.
	Seed int64

	// MissingDateRate is the share of lines written without an order date.
	MissingDateRate float64

	// Start and End bound the order dates. Zero values default to
	// 2014-01-01 through 2017-12-31.
	Start time.Time
	End   time.Time
}

// Sample is a generated order sheet. Row cells follow Header: text as
// string, dates as time.Time, amounts as float64 and quantities as int.
// A missing order date is an empty string.
type Sample struct {
	Header []string
	Rows   [][]any
}

type category struct {
	name string
	code string
	subs []subCategory
}

type subCategory struct {
	name string
	code string
}

var categories = []category{
	{"Furniture", "FUR", []subCategory{
		{"Bookcases", "BO"}, {"Chairs", "CH"}, {"Furnishings", "FU"}, {"Tables", "TA"},
	}},
	{"Office Supplies", "OFF", []subCategory{
		{"Appliances", "AP"}, {"Art", "AR"}, {"Binders", "BI"}, {"Envelopes", "EN"},
		{"Fasteners", "FA"}, {"Labels", "LA"}, {"Paper", "PA"}, {"Storage", "ST"}, {"Supplies", "SU"},
	}},
	{"Technology", "TEC", []subCategory{
		{"Accessories", "AC"}, {"Copiers", "CO"}, {"Machines", "MA"}, {"Phones", "PH"},
	}},
}

var segments = []string{"Consumer", "Corporate", "Home Office"}

type shipMode struct {
	name             string
	minDays, maxDays int
}

var shipModes = []shipMode{
	{"Standard Class", 4, 7},
	{"Second Class", 2, 5},
	{"First Class", 1, 3},
	{"Same Day", 0, 0},
}

type location struct {
	state  string
	region string
}

var locations = []location{
	{"California", "West"}, {"Washington", "West"}, {"Oregon", "West"}, {"Colorado", "West"},
	{"Texas", "Central"}, {"Illinois", "Central"}, {"Michigan", "Central"}, {"Minnesota", "Central"},
	{"New York", "East"}, {"Pennsylvania", "East"}, {"Ohio", "East"}, {"Massachusetts", "East"},
	{"Florida", "South"}, {"Georgia", "South"}, {"Virginia", "South"}, {"Tennessee", "South"},
}

var discounts = []float64{0, 0, 0, 0, 0.1, 0.15, 0.2, 0.3, 0.5}

type customer struct {
	id, name, segment string
}

type product struct {
	id, category, subCategory, name string
}

// GenerateSample builds a reproducible order sheet. Orders hold one to
// four lines that share the order id, customer, order date and ship data.
func GenerateSample(cfg SampleConfig) *Sample {
	f := NewFakerWithSeed(uint64(cfg.Seed))

	start, end := cfg.Start, cfg.End
	if start.IsZero() {
		start = time.Date(2014, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if end.IsZero() {
		end = time.Date(2017, time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	customers := make([]customer, max(1, cfg.Rows/6))
	for i := range customers {
		first, last := f.FirstName(), f.LastName()
		customers[i] = customer{
			id:      fmt.Sprintf("%c%c-%05d", first[0], last[0], 10000+i),
			name:    first + " " + last,
			segment: Choose(f, segments),
		}
	}

	products := make([]product, max(1, cfg.Rows/4))
	for i := range products {
		cat := Choose(f, categories)
		sub := Choose(f, cat.subs)
		products[i] = product{
			id:          fmt.Sprintf("%s-%s-%08d", cat.code, sub.code, 10000000+i),
			category:    cat.name,
			subCategory: sub.name,
			name:        f.ProductName(),
		}
	}

	sample := &Sample{Header: schema.Header()}
	progress := NewProgressReporter("sample", int64(cfg.Rows), int64(max(1, cfg.Rows/10)))

	for order := 0; len(sample.Rows) < cfg.Rows; order++ {
		orderDate := f.DateRange(start, end)
		orderDate = time.Date(orderDate.Year(), orderDate.Month(), orderDate.Day(), 0, 0, 0, 0, time.UTC)
		mode := Choose(f, shipModes)
		shipDate := orderDate.AddDate(0, 0, f.Int(mode.minDays, mode.maxDays))
		cust := Choose(f, customers)
		loc := Choose(f, locations)
		city, zip := f.City(), f.Zip()
		orderID := fmt.Sprintf("CA-%d-%06d", orderDate.Year(), 100000+order)

		lines := min(f.Int(1, 4), cfg.Rows-len(sample.Rows))
		for l := 0; l < lines; l++ {
			prod := Choose(f, products)
			quantity := f.Int(1, 14)
			discount := Choose(f, discounts)
			sales := round(f.Price(2, 500)*float64(quantity)*(1-discount), 2)
			profit := round(sales*f.Float64(-0.3, 0.45), 4)

			var date any = orderDate
			if cfg.MissingDateRate > 0 && f.Float64(0, 1) < cfg.MissingDateRate {
				date = ""
			}

			sample.Rows = append(sample.Rows, []any{
				orderID, date, shipDate, mode.name,
				cust.id, cust.name, cust.segment,
				"United States", city, loc.state, zip, loc.region,
				prod.id, prod.category, prod.subCategory, prod.name,
				sales, quantity, discount, profit,
			})
			progress.Update(1)
		}
	}
	progress.Done()

	return sample
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
