//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-sales-etl.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/viper"
)

var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds all configuration for pgedge-sales-etl.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Source describes the spreadsheet to load.
	Source SourceConfig `mapstructure:"source"`

	// Sink selects and configures the relational store.
	Sink SinkConfig `mapstructure:"sink"`

	// Build holds star schema build options.
	Build BuildConfig `mapstructure:"build"`

	// Export holds configuration for the export subcommand.
	Export ExportConfig `mapstructure:"export"`

	// Generate holds configuration for the generate subcommand.
	Generate GenerateConfig `mapstructure:"generate"`
}

// SourceConfig identifies the input spreadsheet.
type SourceConfig struct {
	// Path is the .xlsx, .xlsm or .csv file to load.
	Path string `mapstructure:"path"`

	// Sheet is the worksheet to read. Empty means the first sheet.
	Sheet string `mapstructure:"sheet"`
}

// SinkConfig holds configuration for the relational store.
type SinkConfig struct {
	// Driver is the sink name: sqlite or postgres.
	Driver string `mapstructure:"driver"`

	// Database is the SQLite database file.
	Database string `mapstructure:"database"`

	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// TablePrefix is prepended to every relation name.
	TablePrefix string `mapstructure:"table_prefix"`
}

// BuildConfig holds star schema build options.
type BuildConfig struct {
	// DerivedMetrics adds the Customer_Metrics and Monthly_Sales tables.
	DerivedMetrics bool `mapstructure:"derived_metrics"`

	// FillDateGaps emits a Dim_Date row for every day of the order range.
	FillDateGaps bool `mapstructure:"fill_date_gaps"`
}

// ExportConfig holds configuration for CSV export.
type ExportConfig struct {
	// Dir is the directory the CSV files are written to.
	Dir string `mapstructure:"dir"`
}

// GenerateConfig holds configuration for sample data generation.
type GenerateConfig struct {
	// Output is the file to write (.xlsx or .csv).
	Output string `mapstructure:"output"`

	// Rows is the number of order lines to generate.
	Rows int `mapstructure:"rows"`

	// Seed makes generation reproducible.
	Seed int64 `mapstructure:"seed"`

	// MissingDateRate is the share of rows written without an order date.
	MissingDateRate float64 `mapstructure:"missing_date_rate"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Sink: SinkConfig{
			Driver:   "sqlite",
			Database: "sales.db",
		},
		Export: ExportConfig{
			Dir: "exports",
		},
		Generate: GenerateConfig{
			Output:          "superstore.xlsx",
			Rows:            1000,
			Seed:            1,
			MissingDateRate: 0.01,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./sales-etl.yaml
// 3. ~/.config/sales-etl/sales-etl.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("sales-etl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "sales-etl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks the sink configuration shared by run and export.
func (c *Config) Validate() error {
	switch c.Sink.Driver {
	case "sqlite":
		if c.Sink.Database == "" {
			return fmt.Errorf("database file is required for the sqlite sink")
		}
	case "postgres":
		if c.Sink.Connection == "" {
			return fmt.Errorf("connection string is required for the postgres sink")
		}
	case "":
		return fmt.Errorf("sink driver is required")
	default:
		return fmt.Errorf("unknown sink driver: %s", c.Sink.Driver)
	}
	if c.Sink.TablePrefix != "" && !tablePrefixPattern.MatchString(c.Sink.TablePrefix) {
		return fmt.Errorf("table_prefix must contain only letters, digits and underscores")
	}
	return nil
}

// ValidateRun checks configuration required for run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Source.Path == "" {
		return fmt.Errorf("source file is required")
	}
	return nil
}

// ValidateExport checks configuration required for export command.
func (c *Config) ValidateExport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Export.Dir == "" {
		return fmt.Errorf("export directory is required")
	}
	return nil
}

// ValidateGenerate checks configuration required for generate command.
func (c *Config) ValidateGenerate() error {
	if c.Generate.Output == "" {
		return fmt.Errorf("output file is required")
	}
	if c.Generate.Rows < 1 {
		return fmt.Errorf("rows must be at least 1")
	}
	if c.Generate.MissingDateRate < 0 || c.Generate.MissingDateRate >= 1 {
		return fmt.Errorf("missing_date_rate must be in [0, 1)")
	}
	return nil
}
