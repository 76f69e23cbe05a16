//-------------------------------------------------------------------------
//
// pgEdge Sales ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/model"
	"github.com/pgEdge/pgedge-sales-etl/pkg/version"
)

func init() {
	Register(sqliteDriver{})
}

// runTimeLayout is fixed width so that run timestamps sort as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var sqliteTypes = map[ColumnType]string{
	Integer: "INTEGER",
	Numeric: "REAL",
	Text:    "TEXT",
	Date:    "TEXT",
	Boolean: "INTEGER",
}

type sqliteDriver struct{}

func (sqliteDriver) Name() string {
	return "sqlite"
}

func (sqliteDriver) Description() string {
	return "SQLite database file (pure Go driver, default)"
}

func (sqliteDriver) Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Database == "" {
		return nil, &model.PersistenceError{Op: "open sqlite store", Err: errors.New("database file is required")}
	}

	db, err := sql.Open("sqlite", cfg.Database+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, &model.PersistenceError{Op: "open sqlite store", Err: err}
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &model.PersistenceError{Op: "open sqlite store", Err: err}
	}

	if err := migrate(ctx, db, goose.DialectSQLite3, "sqlite"); err != nil {
		db.Close()
		return nil, &model.PersistenceError{Op: "migrate sqlite store", Err: err}
	}

	logging.Info().
		Str("database", cfg.Database).
		Msg("Opened SQLite store")

	return &sqliteStore{db: db}, nil
}

type sqliteStore struct {
	db *sql.DB
}

func sqliteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqliteValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(dateLayout)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

func (s *sqliteStore) Replace(ctx context.Context, batch *Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.PersistenceError{Op: "begin transaction", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	for _, rel := range batch.Relations {
		if err := s.replaceRelation(ctx, tx, rel); err != nil {
			return err
		}
	}
	for _, name := range batch.Drop {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+sqliteIdent(name)); err != nil {
			return &model.PersistenceError{Relation: name, Op: "drop", Err: err}
		}
	}

	run := batch.Run
	run.Version = version.Short()
	run.FinishedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
        INSERT INTO etl_runs (run_id, source, table_prefix, version, started_at, finished_at,
                              input_rows, cleaned_rows, dropped_rows, fact_rows)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, run.ID, run.Source, run.TablePrefix, run.Version,
		run.StartedAt.UTC().Format(runTimeLayout), run.FinishedAt.Format(runTimeLayout),
		run.InputRows, run.CleanedRows, run.DroppedRows, run.FactRows)
	if err != nil {
		return &model.PersistenceError{Relation: runsTable, Op: "record run in", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &model.PersistenceError{Op: "commit", Err: err}
	}

	logging.Info().
		Str("run_id", run.ID).
		Int("relations", len(batch.Relations)).
		Strs("dropped", batch.Drop).
		Msg("Committed relations to SQLite")

	return nil
}

func (s *sqliteStore) replaceRelation(ctx context.Context, tx *sql.Tx, rel Relation) error {
	staging := sqliteIdent(rel.Name + stagingSuffix)
	final := sqliteIdent(rel.Name)

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "drop stale staging table for", Err: err}
	}

	defs := make([]string, len(rel.Columns))
	for i, c := range rel.Columns {
		defs[i] = sqliteIdent(c.Name) + " " + sqliteTypes[c.Type]
		if c.Name == rel.Key {
			defs[i] += " PRIMARY KEY"
		}
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE "+staging+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "create staging table for", Err: err}
	}

	cols := make([]string, len(rel.Columns))
	for i, c := range rel.Columns {
		cols[i] = sqliteIdent(c.Name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+staging+" ("+strings.Join(cols, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "prepare insert into", Err: err}
	}
	defer stmt.Close()

	args := make([]any, len(rel.Columns))
	for n, row := range rel.Rows {
		if len(row) != len(rel.Columns) {
			return &model.PersistenceError{
				Relation: rel.Name,
				Op:       "load",
				Err:      fmt.Errorf("row %d has %d values, want %d", n+1, len(row), len(rel.Columns)),
			}
		}
		for i, v := range row {
			args[i] = sqliteValue(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return &model.PersistenceError{Relation: rel.Name, Op: "load", Err: err}
		}
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+final); err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "drop", Err: err}
	}
	if _, err := tx.ExecContext(ctx, "ALTER TABLE "+staging+" RENAME TO "+final); err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "rename staging table to", Err: err}
	}

	logging.Debug().
		Str("relation", rel.Name).
		Int("rows", len(rel.Rows)).
		Msg("Replaced relation")

	return nil
}

func (s *sqliteStore) Exists(ctx context.Context, relation string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, relation).Scan(&n)
	if err != nil {
		return false, &model.PersistenceError{Relation: relation, Op: "look up", Err: err}
	}
	return n > 0, nil
}

func (s *sqliteStore) Dump(ctx context.Context, relation string, fn func(record []string) error) error {
	exists, err := s.Exists(ctx, relation)
	if err != nil {
		return err
	}
	if !exists {
		return &model.PersistenceError{Relation: relation, Op: "dump", Err: ErrRelationNotFound}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+sqliteIdent(relation)+" ORDER BY 1, 2")
	if err != nil {
		return &model.PersistenceError{Relation: relation, Op: "dump", Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return &model.PersistenceError{Relation: relation, Op: "dump", Err: err}
	}
	if err := fn(columns); err != nil {
		return err
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return &model.PersistenceError{Relation: relation, Op: "dump", Err: err}
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = FormatValue(v)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &model.PersistenceError{Relation: relation, Op: "dump", Err: err}
	}
	return nil
}

func (s *sqliteStore) LastRun(ctx context.Context) (*Run, error) {
	var run Run
	var started, finished string
	err := s.db.QueryRowContext(ctx, `
        SELECT run_id, source, table_prefix, version, started_at, finished_at,
               input_rows, cleaned_rows, dropped_rows, fact_rows
        FROM etl_runs
        ORDER BY finished_at DESC
        LIMIT 1
    `).Scan(&run.ID, &run.Source, &run.TablePrefix, &run.Version, &started, &finished,
		&run.InputRows, &run.CleanedRows, &run.DroppedRows, &run.FactRows)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.PersistenceError{Relation: runsTable, Op: "read", Err: err}
	}

	if run.StartedAt, err = time.Parse(runTimeLayout, started); err != nil {
		return nil, &model.PersistenceError{Relation: runsTable, Op: "read", Err: err}
	}
	if run.FinishedAt, err = time.Parse(runTimeLayout, finished); err != nil {
		return nil, &model.PersistenceError{Relation: runsTable, Op: "read", Err: err}
	}
	return &run, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
