//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package loader reads a sales spreadsheet into raw records.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/model"
	"github.com/pgEdge/pgedge-sales-etl/internal/schema"
)

// Options controls how a source file is read.
type Options struct {
	// Sheet names the worksheet to read from a workbook. Empty selects
	// the first sheet. Ignored for CSV sources.
	Sheet string
}

// Load reads the source file at path and returns one RawRecord per
// non-blank data row.
func Load(path string, opts Options) ([]model.RawRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.SourceNotFoundError{Path: path, Err: err}
		}
		return nil, &model.SourceFormatError{Path: path, Reason: "cannot stat file", Err: err}
	}
	if info.IsDir() {
		return nil, &model.SourceFormatError{Path: path, Reason: "path is a directory"}
	}

	var rows [][]string
	workbook := false
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		workbook = true
		rows, err = readWorkbook(path, opts.Sheet)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, &model.SourceFormatError{
			Path:   path,
			Reason: fmt.Sprintf("unsupported file type %q", ext),
		}
	}
	if err != nil {
		return nil, err
	}

	records, err := buildRecords(path, rows)
	if err != nil {
		return nil, err
	}
	if workbook {
		for i := range records {
			records[i].DateSerials = true
		}
	}

	logging.Info().
		Str("path", path).
		Int("records", len(records)).
		Msg("Loaded source")

	return records, nil
}

// buildRecords maps the header row onto the logical columns and converts
// the remaining rows.
func buildRecords(path string, rows [][]string) ([]model.RawRecord, error) {
	headerIdx := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, &model.SourceFormatError{Path: path, Reason: "no header row"}
	}

	mapping := schema.Resolve(rows[headerIdx])
	if missing := mapping.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, col := range missing {
			names[i] = string(col)
		}
		return nil, &model.SourceFormatError{
			Path:   path,
			Reason: "missing required columns: " + strings.Join(names, ", "),
		}
	}

	logging.Debug().
		Interface("columns", mapping).
		Msg("Resolved source columns")

	records := make([]model.RawRecord, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		records = append(records, mapping.Record(i+1, rows[i]))
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
