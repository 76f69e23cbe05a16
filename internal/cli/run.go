package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/pipeline"
	"github.com/pgEdge/pgedge-sales-etl/internal/star"
)

var (
	runSource         string
	runSheet          string
	runDerivedMetrics bool
	runFillDateGaps   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load a sales spreadsheet and replace the star schema",
	Long: `Load a sales spreadsheet (.xlsx, .xlsm or .csv), clean it, build the
customer, product and date dimensions and the sales fact table, and
replace those relations in the configured sink.

Rows without an order id or a parseable order date are dropped and
reported. Missing or non-numeric amounts are stored as zero.

Example:
  sales-etl run --source superstore.xlsx
  sales-etl run --source orders.csv --sink postgres --connection postgres://localhost/sales
  sales-etl run --source superstore.xlsx --table-prefix sa_ --derived-metrics`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSource, "source", "",
		"spreadsheet to load (.xlsx, .xlsm, .csv)")
	runCmd.Flags().StringVar(&runSheet, "sheet", "",
		"worksheet to read (default: first sheet)")
	runCmd.Flags().BoolVar(&runDerivedMetrics, "derived-metrics", false,
		"also write Customer_Metrics and Monthly_Sales")
	runCmd.Flags().BoolVar(&runFillDateGaps, "fill-date-gaps", false,
		"write a Dim_Date row for every day between the first and last order")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runSource != "" {
		cfg.Source.Path = runSource
	}
	if runSheet != "" {
		cfg.Source.Sheet = runSheet
	}
	if runDerivedMetrics {
		cfg.Build.DerivedMetrics = true
	}
	if runFillDateGaps {
		cfg.Build.FillDateGaps = true
	}

	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := pipeline.Run(ctx, pipeline.Options{
		Source:      cfg.Source.Path,
		Sheet:       cfg.Source.Sheet,
		Store:       store,
		TablePrefix: cfg.Sink.TablePrefix,
		Build: star.BuildOptions{
			Options:        star.Options{FillDateGaps: cfg.Build.FillDateGaps},
			DerivedMetrics: cfg.Build.DerivedMetrics,
		},
	})
	if err != nil {
		return err
	}

	for _, cerr := range report.Cleaning.Errors {
		logging.Warn().
			Int("row", cerr.Row).
			Str("field", cerr.Field).
			Str("reason", cerr.Reason).
			Msg("Dropped record")
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, r *pipeline.Report) {
	cmd.Printf("Run %s complete in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	cmd.Println()
	cmd.Printf("  Rows loaded:     %d\n", r.Loaded)
	cmd.Printf("  Rows cleaned:    %d\n", r.Cleaning.Cleaned)
	cmd.Printf("  Rows dropped:    %d\n", r.Cleaning.Dropped)

	if len(r.Cleaning.Defaulted) > 0 {
		cols := make([]string, 0, len(r.Cleaning.Defaulted))
		for col := range r.Cleaning.Defaulted {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			cmd.Printf("  Zeroed %-9s %d\n", col+":", r.Cleaning.Defaulted[col])
		}
	}

	cmd.Println()
	cmd.Printf("  %-18s %d\n", star.FactSalesRelation, r.Facts)
	cmd.Printf("  %-18s %d\n", star.DimCustomerRelation, r.Customers)
	cmd.Printf("  %-18s %d\n", star.DimProductRelation, r.Products)
	cmd.Printf("  %-18s %d\n", star.DimDateRelation, r.Dates)
	if r.CustomerMetrics > 0 || r.MonthlySales > 0 {
		cmd.Printf("  %-18s %d\n", star.CustomerMetricsRelation, r.CustomerMetrics)
		cmd.Printf("  %-18s %d\n", star.MonthlySalesRelation, r.MonthlySales)
	}
	if r.Conflicts.Customers > 0 || r.Conflicts.Products > 0 {
		cmd.Println()
		cmd.Printf("  Attribute conflicts (first seen kept): %d customer, %d product\n",
			r.Conflicts.Customers, r.Conflicts.Products)
	}
}
