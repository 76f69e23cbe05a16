package star

import (
	"sort"
	"time"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/model"
)

// Options controls dimension construction.
type Options struct {
	// FillDateGaps emits one Dim_Date row for every calendar day between
	// the first and last order date instead of only the observed dates.
	FillDateGaps bool
}

// Lookups maps natural keys to surrogate keys. It is the only input the
// fact builder takes from the dimension builder.
type Lookups struct {
	Customers *KeyRegistry[model.CustomerKey]
	Products  *KeyRegistry[model.ProductKey]

	// Dates maps a calendar date to its date key.
	Dates map[time.Time]int
}

// Conflicts counts records that repeated a natural key with different
// non-key attributes. The first-seen attributes are kept.
type Conflicts struct {
	Customers int
	Products  int
}

// Dimensions holds the built dimension tables and their lookups.
type Dimensions struct {
	Customers []model.DimCustomer
	Products  []model.DimProduct
	Dates     []model.DimDate
	Lookups   Lookups
	Conflicts Conflicts
}

// BuildDimensions extracts the customer, product and date dimensions from
// cleaned records. Customer and product surrogate keys follow first-seen
// order over records; date keys are derived from the date itself.
func BuildDimensions(records []model.CleanRecord, opts Options) *Dimensions {
	dims := &Dimensions{
		Lookups: Lookups{
			Customers: NewKeyRegistry[model.CustomerKey](),
			Products:  NewKeyRegistry[model.ProductKey](),
			Dates:     make(map[time.Time]int),
		},
	}

	for _, rec := range records {
		dims.addCustomer(rec)
		dims.addProduct(rec)
		dims.Lookups.Dates[rec.OrderDate] = model.DateKey(rec.OrderDate)
	}

	dims.Dates = buildDates(dims.Lookups.Dates, opts.FillDateGaps)
	if opts.FillDateGaps {
		for _, d := range dims.Dates {
			dims.Lookups.Dates[d.Date] = d.DateKey
		}
	}

	logging.Info().
		Int("customers", len(dims.Customers)).
		Int("products", len(dims.Products)).
		Int("dates", len(dims.Dates)).
		Int("customer_conflicts", dims.Conflicts.Customers).
		Int("product_conflicts", dims.Conflicts.Products).
		Msg("Built dimensions")

	return dims
}

func (d *Dimensions) addCustomer(rec model.CleanRecord) {
	nk := model.CustomerKey{Name: rec.CustomerName, Segment: rec.Segment}
	key, created := d.Lookups.Customers.Assign(nk)
	if created {
		d.Customers = append(d.Customers, model.DimCustomer{
			CustomerKey:  key,
			CustomerName: rec.CustomerName,
			Segment:      rec.Segment,
			CustomerID:   rec.CustomerID,
		})
		return
	}

	// Rows are appended in key order, so key-1 is the row index.
	existing := d.Customers[key-1]
	if rec.CustomerID != "" && existing.CustomerID != rec.CustomerID {
		d.Conflicts.Customers++
		logging.Debug().
			Int("row", rec.Row).
			Str("customer_name", rec.CustomerName).
			Str("kept_customer_id", existing.CustomerID).
			Str("ignored_customer_id", rec.CustomerID).
			Msg("Conflicting customer attributes; keeping first seen")
	}
}

func (d *Dimensions) addProduct(rec model.CleanRecord) {
	nk := model.ProductKey{
		Category:    rec.Category,
		SubCategory: rec.SubCategory,
		Name:        rec.ProductName,
	}
	key, created := d.Lookups.Products.Assign(nk)
	if created {
		d.Products = append(d.Products, model.DimProduct{
			ProductKey:  key,
			Category:    rec.Category,
			SubCategory: rec.SubCategory,
			ProductName: rec.ProductName,
			ProductID:   rec.ProductID,
		})
		return
	}

	existing := d.Products[key-1]
	if rec.ProductID != "" && existing.ProductID != rec.ProductID {
		d.Conflicts.Products++
		logging.Debug().
			Int("row", rec.Row).
			Str("product_name", rec.ProductName).
			Str("kept_product_id", existing.ProductID).
			Str("ignored_product_id", rec.ProductID).
			Msg("Conflicting product attributes; keeping first seen")
	}
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// dayNames is indexed from Monday = 0.
var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday",
	"Friday", "Saturday", "Sunday"}

// buildDates returns one Dim_Date row per observed date, or per day of the
// observed range when fill is set, in calendar order.
func buildDates(observed map[time.Time]int, fill bool) []model.DimDate {
	if len(observed) == 0 {
		return nil
	}

	days := make([]time.Time, 0, len(observed))
	for d := range observed {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	if fill {
		first, last := days[0], days[len(days)-1]
		var filled []time.Time
		for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
			filled = append(filled, d)
		}
		days = filled
	}

	dates := make([]model.DimDate, len(days))
	for i, d := range days {
		dates[i] = NewDimDate(d)
	}
	return dates
}

// NewDimDate describes a calendar date.
func NewDimDate(d time.Time) model.DimDate {
	// Monday = 0
	dow := (int(d.Weekday()) + 6) % 7
	month := int(d.Month())

	return model.DimDate{
		DateKey:   model.DateKey(d),
		Date:      d,
		Year:      d.Year(),
		Month:     month,
		Day:       d.Day(),
		Quarter:   (month-1)/3 + 1,
		MonthName: monthNames[month-1],
		DayOfWeek: dow,
		DayName:   dayNames[dow],
		IsWeekend: dow >= 5,
	}
}
