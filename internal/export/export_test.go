package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-sales-etl/internal/model"
	"github.com/pgEdge/pgedge-sales-etl/internal/sink"
	"github.com/pgEdge/pgedge-sales-etl/internal/star"
	"github.com/pgEdge/pgedge-sales-etl/internal/testutil"
)

func populatedStore(t *testing.T, prefix string) sink.Store {
	t.Helper()
	ctx := context.Background()

	store, err := sink.Open(ctx, "sqlite", sink.Config{Database: testutil.SQLitePath(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	schema, _, err := star.Build([]model.CleanRecord{
		{
			Row:          2,
			OrderID:      "O-1",
			OrderDate:    time.Date(2016, time.November, 8, 0, 0, 0, 0, time.UTC),
			CustomerName: "Claire Gute",
			Segment:      "Consumer",
			Category:     "Furniture",
			SubCategory:  "Bookcases",
			ProductName:  "Bush Somerset Collection Bookcase, Oak",
			Sales:        decimal.RequireFromString("261.96"),
			Quantity:     2,
		},
	}, star.BuildOptions{})
	require.NoError(t, err)

	require.NoError(t, store.Replace(ctx, &sink.Batch{
		Run:       sink.Run{ID: "run-1", Source: "orders.csv", StartedAt: time.Now()},
		Relations: sink.Relations(schema, prefix),
	}))
	return store
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExport(t *testing.T) {
	store := populatedStore(t, "")
	dir := filepath.Join(t.TempDir(), "nested", "exports")

	result, err := Export(context.Background(), store, Options{Dir: dir})
	require.NoError(t, err)

	assert.Len(t, result.Files, 4, "derived tables were not written")
	for _, name := range []string{"Dim_Customer", "Dim_Product", "Dim_Date", "Fact_Sales"} {
		assert.FileExists(t, filepath.Join(dir, name+".csv"))
		assert.Equal(t, 1, result.Rows[name])
	}

	products := readCSV(t, result.Files["Dim_Product"])
	assert.Equal(t, [][]string{
		{"product_key", "category", "sub_category", "product_name", "product_id"},
		{"1", "Furniture", "Bookcases", "Bush Somerset Collection Bookcase, Oak", ""},
	}, products)

	dates := readCSV(t, result.Files["Dim_Date"])
	assert.Equal(t, "20161108", dates[1][0])
	assert.Equal(t, "2016-11-08", dates[1][1])
	assert.Equal(t, "Tuesday", dates[1][8])
}

func TestExportWithPrefix(t *testing.T) {
	store := populatedStore(t, "sa_")
	dir := t.TempDir()

	_, err := Export(context.Background(), store, Options{Dir: dir})
	assert.Error(t, err, "unprefixed relations do not exist")

	result, err := Export(context.Background(), store, Options{Dir: dir, TablePrefix: "sa_"})
	require.NoError(t, err)
	assert.Contains(t, result.Files, "sa_Fact_Sales")
	assert.FileExists(t, filepath.Join(dir, "sa_Fact_Sales.csv"))
}

func TestExportDirIsFile(t *testing.T) {
	store := populatedStore(t, "")
	path := filepath.Join(t.TempDir(), "exports")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o644))

	_, err := Export(context.Background(), store, Options{Dir: path})
	require.Error(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(content))
}
