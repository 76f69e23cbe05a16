//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package model

import (
	"fmt"
)

// SourceNotFoundError reports that the source file does not exist.
type SourceNotFoundError struct {
	Path string
	Err  error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source file not found: %s", e.Path)
}

func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// SourceFormatError reports that the source file could not be read as
// tabular sales data.
type SourceFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SourceFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid source %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid source %s: %s", e.Path, e.Reason)
}

func (e *SourceFormatError) Unwrap() error { return e.Err }

// CleaningError describes a record dropped by the cleaner. It is recorded
// in the cleaning report and never aborts a run.
type CleaningError struct {
	Row    int
	Field  string
	Reason string
}

func (e *CleaningError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Reason)
}

// ReferentialIntegrityError reports a fact row whose natural key has no
// dimension entry. It means the dimension and fact passes disagree.
type ReferentialIntegrityError struct {
	Dimension string
	Key       string
	Row       int
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("row %d: no %s entry for key %s", e.Row, e.Dimension, e.Key)
}

// PersistenceError reports a failure writing to the output store.
type PersistenceError struct {
	Relation string
	Op       string
	Err      error
}

func (e *PersistenceError) Error() string {
	if e.Relation == "" {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Relation, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
