package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-sales-etl/internal/export"
	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored star schema to CSV files",
	Long: `Write each stored relation to <dir>/<relation>.csv with a header row.
The directory is created if it does not exist. Customer_Metrics and
Monthly_Sales are included when a run wrote them.

Example:
  sales-etl export --dir exports
  sales-etl export --dir exports --table-prefix sa_`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "",
		"output directory (default: exports)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportDir != "" {
		cfg.Export.Dir = exportDir
	}

	if err := cfg.ValidateExport(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.LastRun(ctx)
	if err != nil {
		return err
	}
	if run != nil {
		logging.Info().
			Str("run_id", run.ID).
			Str("source", run.Source).
			Time("finished_at", run.FinishedAt).
			Msg("Exporting last run")
	}

	result, err := export.Export(ctx, store, export.Options{
		Dir:         cfg.Export.Dir,
		TablePrefix: cfg.Sink.TablePrefix,
	})
	if err != nil {
		return err
	}

	names := make([]string, 0, len(result.Files))
	for name := range result.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Printf("Exported %d relations:\n", len(names))
	for _, name := range names {
		cmd.Printf("  %-40s %d rows\n", result.Files[name], result.Rows[name])
	}
	return nil
}
