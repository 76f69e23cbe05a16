//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package sink persists star schema relations to a relational store.
//
// Every store replaces relations with a stage-then-swap inside a single
// transaction: each relation is loaded into a staging table, the old
// relation is dropped, the staging table is renamed into place, and the
// run is recorded in etl_runs. Nothing is visible until commit.
package sink

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// stagingSuffix names the staging table of a relation being replaced.
const stagingSuffix = "__staging"

// runsTable is the bookkeeping table created by the migrations.
const runsTable = "etl_runs"

// ErrRelationNotFound is returned by Dump for a relation that does not
// exist in the store.
var ErrRelationNotFound = errors.New("relation not found")

// Config holds the settings needed to open a store.
type Config struct {
	// Database is the SQLite database file.
	Database string

	// Connection is the PostgreSQL connection string.
	Connection string
}

// Run describes one pipeline run as recorded in etl_runs.
type Run struct {
	ID          string
	Source      string
	TablePrefix string
	Version     string
	StartedAt   time.Time
	FinishedAt  time.Time
	InputRows   int
	CleanedRows int
	DroppedRows int
	FactRows    int
}

// Batch is everything a single run writes.
type Batch struct {
	Run       Run
	Relations []Relation

	// Drop names relations that must not outlive the run, such as derived
	// metrics from an earlier run that this run did not rebuild. Missing
	// relations are ignored.
	Drop []string
}

// Store is an open connection to a relational store.
type Store interface {
	// Replace writes every relation of the batch, replacing any prior
	// relation of the same name, drops the batch's Drop relations and
	// records the run. Either all of it happens or none of it does.
	Replace(ctx context.Context, batch *Batch) error

	// Exists reports whether a relation is present.
	Exists(ctx context.Context, relation string) (bool, error)

	// Dump streams a relation in key order. fn is called first with the
	// column names and then once per row.
	Dump(ctx context.Context, relation string, fn func(record []string) error) error

	// LastRun returns the most recently recorded run, or nil if there is
	// none.
	LastRun(ctx context.Context) (*Run, error)

	// Close releases the store's connections.
	Close() error
}

// Driver opens stores of one kind.
type Driver interface {
	// Name returns the driver name used in configuration.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Open connects to the store and applies pending migrations.
	Open(ctx context.Context, cfg Config) (Store, error)
}

var (
	registry = make(map[string]Driver)
	mu       sync.RWMutex
)

// Register adds a driver to the registry.
func Register(d Driver) {
	mu.Lock()
	defer mu.Unlock()
	registry[d.Name()] = d
}

// Get retrieves a driver by name.
func Get(name string) (Driver, error) {
	mu.RLock()
	defer mu.RUnlock()

	d, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown sink: %s", name)
	}
	return d, nil
}

// List returns all registered driver names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open looks up a driver by name and opens a store with it.
func Open(ctx context.Context, name string, cfg Config) (Store, error) {
	d, err := Get(name)
	if err != nil {
		return nil, err
	}
	return d.Open(ctx, cfg)
}
