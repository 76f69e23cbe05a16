package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-sales-etl/internal/export"
	"github.com/pgEdge/pgedge-sales-etl/internal/model"
	"github.com/pgEdge/pgedge-sales-etl/internal/sink"
	"github.com/pgEdge/pgedge-sales-etl/internal/star"
	"github.com/pgEdge/pgedge-sales-etl/internal/testutil"
)

const header = "Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Region,State,City,Product ID,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit\n"

const aliceBob = header +
	"O-1,2017-03-01,2017-03-04,Standard Class,AL-1,Alice,Consumer,West,California,Fresno,P-1,Technology,Phones,Phone,100.00,1,0,20\n" +
	"O-2,2017-03-02,,Same Day,BO-1,Bob,Corporate,East,New York,Albany,P-1,Technology,Phones,Phone,\"$1,200.50\",2,0.1,(15.25)\n" +
	"O-3,3/1/2017,2017-03-05,First Class,AL-1,Alice,Consumer,West,California,Fresno,P-2,Office Supplies,Paper,Copy Paper,12.5,5,0,3\n"

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openStore(t *testing.T) sink.Store {
	t.Helper()
	store, err := sink.Open(context.Background(), "sqlite", sink.Config{Database: testutil.SQLitePath(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func countRows(t *testing.T, store sink.Store, relation string) int {
	t.Helper()
	n := -1 // header
	require.NoError(t, store.Dump(context.Background(), relation, func([]string) error {
		n++
		return nil
	}))
	return n
}

func TestRunAliceBob(t *testing.T) {
	store := openStore(t)

	report, err := Run(context.Background(), Options{
		Source: writeSource(t, aliceBob),
		Store:  store,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Loaded)
	assert.Equal(t, 0, report.Cleaning.Dropped)
	assert.Equal(t, 3, report.Facts)
	assert.Equal(t, 2, report.Customers)
	assert.Equal(t, 2, report.Products)
	assert.Equal(t, 2, report.Dates)
	assert.Equal(t, []string{"Dim_Customer", "Dim_Product", "Dim_Date", "Fact_Sales"}, report.Relations)

	var facts [][]string
	require.NoError(t, store.Dump(context.Background(), star.FactSalesRelation, func(r []string) error {
		facts = append(facts, r)
		return nil
	}))
	require.Len(t, facts, 4)
	// customer_key column
	assert.Equal(t, []string{"1", "2", "1"}, []string{facts[1][2], facts[2][2], facts[3][2]})
	// Currency and accounting negatives are cleaned.
	assert.Equal(t, "1200.5", facts[2][12])
	assert.Equal(t, "-15.25", facts[2][15])
	// Missing ship date is stored as null.
	assert.Equal(t, "", facts[2][5])

	run, err := store.LastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, run.ID)
	assert.Equal(t, 3, run.FactRows)
}

func TestRunDropsMissingOrderDate(t *testing.T) {
	source := aliceBob +
		"O-4,,2017-03-05,First Class,CA-1,Carol,Home Office,South,Texas,Austin,P-3,Furniture,Tables,Table,400,1,0,10\n"
	store := openStore(t)

	report, err := Run(context.Background(), Options{Source: writeSource(t, source), Store: store})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Cleaning.Input)
	assert.Equal(t, 1, report.Cleaning.Dropped)
	require.Len(t, report.Cleaning.Errors, 1)
	assert.Equal(t, 5, report.Cleaning.Errors[0].Row)
	assert.Equal(t, "order_date", report.Cleaning.Errors[0].Field)

	assert.Equal(t, 3, report.Facts)
	assert.Equal(t, 2, report.Customers, "dropped customer must not reach the dimension")
	assert.Equal(t, 3, countRows(t, store, star.FactSalesRelation))
}

func TestRunTwiceReplaces(t *testing.T) {
	store := openStore(t)
	opts := Options{
		Source:      writeSource(t, aliceBob),
		Store:       store,
		TablePrefix: "sa_",
		Build:       star.BuildOptions{DerivedMetrics: true},
	}

	first, err := Run(context.Background(), opts)
	require.NoError(t, err)
	second, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Facts, second.Facts)
	assert.Equal(t, 2, second.CustomerMetrics)
	assert.Equal(t, 1, second.MonthlySales)

	for _, name := range sink.RelationNames(true) {
		assert.Equal(t, map[string]int{
			star.DimCustomerRelation:     2,
			star.DimProductRelation:      2,
			star.DimDateRelation:         2,
			star.FactSalesRelation:       3,
			star.CustomerMetricsRelation: 2,
			star.MonthlySalesRelation:    1,
		}[name], countRows(t, store, sink.TableName("sa_", name)), name)
	}
}

func TestRunWithoutMetricsDropsEarlierMetrics(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	_, err := Run(ctx, Options{
		Source: writeSource(t, aliceBob),
		Store:  store,
		Build:  star.BuildOptions{DerivedMetrics: true},
	})
	require.NoError(t, err)
	require.Equal(t, 2, countRows(t, store, star.CustomerMetricsRelation))

	single := header +
		"O-9,2018-06-01,,Standard Class,CA-1,Carol,Home Office,South,Texas,Austin,P-3,Furniture,Tables,Table,400,1,0,10\n"
	report, err := Run(ctx, Options{Source: writeSource(t, single), Store: store})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Customers)

	for _, name := range []string{star.CustomerMetricsRelation, star.MonthlySalesRelation} {
		exists, err := store.Exists(ctx, name)
		require.NoError(t, err)
		assert.False(t, exists, "%s from the earlier run was kept", name)
	}

	result, err := export.Export(ctx, store, export.Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		star.DimCustomerRelation: 1,
		star.DimProductRelation:  1,
		star.DimDateRelation:     1,
		star.FactSalesRelation:   1,
	}, result.Rows)
}

func TestRunSourceErrors(t *testing.T) {
	store := openStore(t)

	_, err := Run(context.Background(), Options{
		Source: filepath.Join(t.TempDir(), "missing.xlsx"),
		Store:  store,
	})
	var notFound *model.SourceNotFoundError
	require.ErrorAs(t, err, &notFound)

	_, err = Run(context.Background(), Options{
		Source: writeSource(t, "Order ID,Sales\nO-1,10\n"),
		Store:  store,
	})
	var format *model.SourceFormatError
	require.ErrorAs(t, err, &format)

	exists, err := store.Exists(context.Background(), star.FactSalesRelation)
	require.NoError(t, err)
	assert.False(t, exists, "failed runs must not write")
}

func TestRunCancelled(t *testing.T) {
	store := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Options{Source: writeSource(t, aliceBob), Store: store})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunRequiresStore(t *testing.T) {
	_, err := Run(context.Background(), Options{Source: "orders.csv"})
	assert.Error(t, err)
}
