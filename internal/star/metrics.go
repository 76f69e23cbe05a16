package star

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-sales-etl/internal/model"
)

// BuildCustomerMetrics aggregates facts per customer and scores recency,
// frequency and monetary value by quartile. Recency is measured in days
// before the latest order date among facts. Rows are ordered by customer
// key.
func BuildCustomerMetrics(facts []model.FactSales) []model.CustomerMetrics {
	if len(facts) == 0 {
		return nil
	}

	type acc struct {
		metrics model.CustomerMetrics
		orders  map[string]struct{}
	}
	byCustomer := make(map[int]*acc)
	var latest time.Time

	for _, f := range facts {
		day := dateFromKey(f.DateKey)
		if day.After(latest) {
			latest = day
		}

		a, ok := byCustomer[f.CustomerKey]
		if !ok {
			a = &acc{
				metrics: model.CustomerMetrics{
					CustomerKey:    f.CustomerKey,
					FirstOrderDate: day,
					LastOrderDate:  day,
				},
				orders: make(map[string]struct{}),
			}
			byCustomer[f.CustomerKey] = a
		}

		m := &a.metrics
		m.TotalRevenue = m.TotalRevenue.Add(f.Sales)
		m.TotalProfit = m.TotalProfit.Add(f.Profit)
		m.TotalQuantity += f.Quantity
		a.orders[f.OrderID] = struct{}{}
		if day.Before(m.FirstOrderDate) {
			m.FirstOrderDate = day
		}
		if day.After(m.LastOrderDate) {
			m.LastOrderDate = day
		}
	}

	metrics := make([]model.CustomerMetrics, 0, len(byCustomer))
	for _, a := range byCustomer {
		m := a.metrics
		m.TotalOrders = len(a.orders)
		m.DaysSinceLastOrder = int(latest.Sub(m.LastOrderDate).Hours() / 24)
		if m.TotalOrders > 0 {
			m.AvgOrderValue = m.TotalRevenue.Div(decimal.NewFromInt(int64(m.TotalOrders))).Round(4)
		}
		metrics = append(metrics, m)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].CustomerKey < metrics[j].CustomerKey })

	recency := make([]float64, len(metrics))
	frequency := make([]float64, len(metrics))
	monetary := make([]float64, len(metrics))
	for i, m := range metrics {
		recency[i] = float64(m.DaysSinceLastOrder)
		frequency[i] = float64(m.TotalOrders)
		monetary[i] = m.TotalRevenue.InexactFloat64()
	}
	rScores := quartileScores(recency)
	fScores := quartileScores(frequency)
	mScores := quartileScores(monetary)

	for i := range metrics {
		// Fewer days since the last order is better.
		metrics[i].RScore = 5 - rScores[i]
		metrics[i].FScore = fScores[i]
		metrics[i].MScore = mScores[i]
		metrics[i].RFMScore = fmt.Sprintf("%d%d%d", metrics[i].RScore, metrics[i].FScore, metrics[i].MScore)
	}

	return metrics
}

// BuildMonthlySales aggregates facts per calendar month, in calendar
// order, with a running revenue total.
func BuildMonthlySales(facts []model.FactSales) []model.MonthlySales {
	if len(facts) == 0 {
		return nil
	}

	type month struct{ year, month int }
	type acc struct {
		row    model.MonthlySales
		orders map[string]struct{}
	}
	byMonth := make(map[month]*acc)

	for _, f := range facts {
		k := month{year: f.DateKey / 10000, month: (f.DateKey / 100) % 100}
		a, ok := byMonth[k]
		if !ok {
			a = &acc{
				row:    model.MonthlySales{Year: k.year, Month: k.month},
				orders: make(map[string]struct{}),
			}
			byMonth[k] = a
		}
		a.row.MonthlyRevenue = a.row.MonthlyRevenue.Add(f.Sales)
		a.row.MonthlyProfit = a.row.MonthlyProfit.Add(f.Profit)
		a.orders[f.OrderID] = struct{}{}
	}

	rows := make([]model.MonthlySales, 0, len(byMonth))
	for _, a := range byMonth {
		a.row.TotalOrders = len(a.orders)
		rows = append(rows, a.row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Month < rows[j].Month
	})

	running := decimal.Zero
	for i := range rows {
		running = running.Add(rows[i].MonthlyRevenue)
		rows[i].CumulativeRevenue = running
	}
	return rows
}

func dateFromKey(key int) time.Time {
	return time.Date(key/10000, time.Month((key/100)%100), key%100, 0, 0, 0, 0, time.UTC)
}

// quartileScores scores each value 1-4 against the 25th, 50th and 75th
// percentiles of values (linear interpolation between closest ranks).
func quartileScores(values []float64) []int {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q2 := quantile(sorted, 0.50)
	q3 := quantile(sorted, 0.75)

	scores := make([]int, len(values))
	for i, v := range values {
		switch {
		case v <= q1:
			scores[i] = 1
		case v <= q2:
			scores[i] = 2
		case v <= q3:
			scores[i] = 3
		default:
			scores[i] = 4
		}
	}
	return scores
}

// quantile expects sorted, non-empty input.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
