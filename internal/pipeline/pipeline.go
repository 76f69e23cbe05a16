//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline runs the ETL stages once, in order: load, clean, build
// dimensions and facts, then replace the stored relations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pgEdge/pgedge-sales-etl/internal/cleaner"
	"github.com/pgEdge/pgedge-sales-etl/internal/loader"
	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/sink"
	"github.com/pgEdge/pgedge-sales-etl/internal/star"
)

// Options configures a pipeline run.
type Options struct {
	// Source is the spreadsheet to load.
	Source string

	// Sheet selects a worksheet; empty means the first.
	Sheet string

	// Store receives the finished relations.
	Store sink.Store

	// TablePrefix is prepended to every relation name.
	TablePrefix string

	// Build controls dimension and derived table construction.
	Build star.BuildOptions
}

// Report summarizes a completed run.
type Report struct {
	RunID  string
	Source string

	// Loaded is the number of non-blank rows read from the source.
	Loaded int

	Cleaning  *cleaner.Report
	Conflicts star.Conflicts

	Facts           int
	Customers       int
	Products        int
	Dates           int
	CustomerMetrics int
	MonthlySales    int

	// Relations lists the relation names written, with prefix.
	Relations []string

	Duration time.Duration
}

// Run executes the pipeline. Any error other than per-record cleaning
// problems aborts the run; the store is left unchanged in that case.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Store == nil {
		return nil, errors.New("pipeline requires a store")
	}

	started := time.Now()
	report := &Report{
		RunID:  uuid.NewString(),
		Source: opts.Source,
	}

	logging.Info().
		Str("run_id", report.RunID).
		Str("source", opts.Source).
		Msg("Starting run")

	raw, err := loader.Load(opts.Source, loader.Options{Sheet: opts.Sheet})
	if err != nil {
		return nil, err
	}
	report.Loaded = len(raw)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	cleaned, cleaning := cleaner.Clean(raw)
	report.Cleaning = cleaning
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	schema, dims, err := star.Build(cleaned, opts.Build)
	if err != nil {
		return nil, err
	}
	report.Conflicts = dims.Conflicts
	report.Facts = len(schema.Facts)
	report.Customers = len(schema.Customers)
	report.Products = len(schema.Products)
	report.Dates = len(schema.Dates)
	report.CustomerMetrics = len(schema.CustomerMetrics)
	report.MonthlySales = len(schema.MonthlySales)

	relations := sink.Relations(schema, opts.TablePrefix)
	for _, rel := range relations {
		report.Relations = append(report.Relations, rel.Name)
	}

	batch := &sink.Batch{
		Run: sink.Run{
			ID:          report.RunID,
			Source:      opts.Source,
			TablePrefix: opts.TablePrefix,
			StartedAt:   started.UTC(),
			InputRows:   cleaning.Input,
			CleanedRows: cleaning.Cleaned,
			DroppedRows: cleaning.Dropped,
			FactRows:    report.Facts,
		},
		Relations: relations,
		Drop:      sink.StaleRelations(opts.TablePrefix, relations),
	}
	if err := opts.Store.Replace(ctx, batch); err != nil {
		logging.Error().
			Err(err).
			Str("run_id", report.RunID).
			Strs("relations", report.Relations).
			Msg("Replace failed; stored relations left unchanged")
		return nil, err
	}

	report.Duration = time.Since(started)

	logging.Info().
		Str("run_id", report.RunID).
		Int("facts", report.Facts).
		Int("customers", report.Customers).
		Int("products", report.Products).
		Int("dates", report.Dates).
		Int("dropped", cleaning.Dropped).
		Dur("duration", report.Duration).
		Msg("Run complete")

	return report, nil
}
