//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-sales-etl.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-sales-etl/internal/config"
	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/sink"
	"github.com/pgEdge/pgedge-sales-etl/pkg/version"
)

var (
	// Global flags
	cfgFile     string
	logLevel    string
	sinkDriver  string
	database    string
	connection  string
	tablePrefix string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "sales-etl",
		Short: "Load retail sales spreadsheets into a star schema",
		Long: `sales-etl reads a Superstore-style sales spreadsheet, cleans it,
reshapes it into a star schema (Fact_Sales with Dim_Customer, Dim_Product
and Dim_Date) and replaces those relations in a SQLite or PostgreSQL
database, ready for any SQL client or BI tool.

Each run is a single pass. Stored relations are replaced, never appended.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./sales-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&sinkDriver, "sink", "",
		"sink driver (sqlite, postgres)")
	rootCmd.PersistentFlags().StringVar(&database, "database", "",
		"SQLite database file (default: sales.db)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&tablePrefix, "table-prefix", "",
		"prefix for relation names (e.g. sa_)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sinksCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(generateCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if sinkDriver != "" {
		cfg.Sink.Driver = sinkDriver
	}
	if database != "" {
		cfg.Sink.Database = database
	}
	if connection != "" {
		cfg.Sink.Connection = connection
	}
	if tablePrefix != "" {
		cfg.Sink.TablePrefix = tablePrefix
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// openStore opens the configured sink.
func openStore(ctx context.Context) (sink.Store, error) {
	return sink.Open(ctx, cfg.Sink.Driver, sink.Config{
		Database:   cfg.Sink.Database,
		Connection: cfg.Sink.Connection,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var sinksCmd = &cobra.Command{
	Use:   "sinks",
	Short: "List available sinks",
	Long: `List the relational stores the star schema can be written to.
Select one with --sink or sink.driver in the config file.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Available sinks:")
		cmd.Println()
		for _, name := range sink.List() {
			d, err := sink.Get(name)
			if err != nil {
				continue
			}
			cmd.Printf("  %-10s - %s\n", name, d.Description())
		}
	},
}
