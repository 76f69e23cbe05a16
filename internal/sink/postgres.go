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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/model"
	"github.com/pgEdge/pgedge-sales-etl/pkg/version"
)

func init() {
	Register(postgresDriver{})
}

var postgresTypes = map[ColumnType]string{
	Integer: "BIGINT",
	Numeric: "DOUBLE PRECISION",
	Text:    "TEXT",
	Date:    "DATE",
	Boolean: "BOOLEAN",
}

type postgresDriver struct{}

func (postgresDriver) Name() string {
	return "postgres"
}

func (postgresDriver) Description() string {
	return "PostgreSQL database (pgx pool, COPY into staging tables)"
}

func (postgresDriver) Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Connection == "" {
		return nil, &model.PersistenceError{Op: "open postgres store", Err: errors.New("connection string is required")}
	}

	pool, err := Connect(ctx, cfg.Connection)
	if err != nil {
		return nil, &model.PersistenceError{Op: "open postgres store", Err: err}
	}

	// goose works on database/sql; share the pool rather than dialing again.
	db := stdlib.OpenDBFromPool(pool)
	if err := migrate(ctx, db, goose.DialectPostgres, "postgres"); err != nil {
		db.Close()
		pool.Close()
		return nil, &model.PersistenceError{Op: "migrate postgres store", Err: err}
	}

	return &postgresStore{pool: pool, db: db}, nil
}

type postgresStore struct {
	pool *pgxpool.Pool
	db   *sql.DB
}

func pgIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (s *postgresStore) Replace(ctx context.Context, batch *Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &model.PersistenceError{Op: "begin transaction", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rel := range batch.Relations {
		if err := replacePostgresRelation(ctx, tx, rel); err != nil {
			return err
		}
	}
	for _, name := range batch.Drop {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+pgIdent(name)); err != nil {
			return &model.PersistenceError{Relation: name, Op: "drop", Err: err}
		}
	}

	run := batch.Run
	run.Version = version.Short()
	run.FinishedAt = time.Now().UTC()
	_, err = tx.Exec(ctx, `
        INSERT INTO etl_runs (run_id, source, table_prefix, version, started_at, finished_at,
                              input_rows, cleaned_rows, dropped_rows, fact_rows)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, run.ID, run.Source, run.TablePrefix, run.Version, run.StartedAt, run.FinishedAt,
		run.InputRows, run.CleanedRows, run.DroppedRows, run.FactRows)
	if err != nil {
		return &model.PersistenceError{Relation: runsTable, Op: "record run in", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &model.PersistenceError{Op: "commit", Err: err}
	}

	logging.Info().
		Str("run_id", run.ID).
		Int("relations", len(batch.Relations)).
		Strs("dropped", batch.Drop).
		Msg("Committed relations to PostgreSQL")

	return nil
}

func replacePostgresRelation(ctx context.Context, tx pgx.Tx, rel Relation) error {
	stagingName := rel.Name + stagingSuffix
	staging := pgIdent(stagingName)
	final := pgIdent(rel.Name)

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "drop stale staging table for", Err: err}
	}

	defs := make([]string, len(rel.Columns))
	for i, c := range rel.Columns {
		defs[i] = pgIdent(c.Name) + " " + postgresTypes[c.Type]
	}
	if _, err := tx.Exec(ctx, "CREATE TABLE "+staging+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "create staging table for", Err: err}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{stagingName}, rel.ColumnNames(), pgx.CopyFromRows(rel.Rows))
	if err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "load", Err: err}
	}
	if n != int64(len(rel.Rows)) {
		return &model.PersistenceError{
			Relation: rel.Name,
			Op:       "load",
			Err:      fmt.Errorf("copied %d rows, want %d", n, len(rel.Rows)),
		}
	}

	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+final); err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "drop", Err: err}
	}
	if _, err := tx.Exec(ctx, "ALTER TABLE "+staging+" RENAME TO "+final); err != nil {
		return &model.PersistenceError{Relation: rel.Name, Op: "rename staging table to", Err: err}
	}

	// The key is added after the rename so the index takes the final name.
	if rel.Key != "" {
		if _, err := tx.Exec(ctx, "ALTER TABLE "+final+" ADD PRIMARY KEY ("+pgIdent(rel.Key)+")"); err != nil {
			return &model.PersistenceError{Relation: rel.Name, Op: "add primary key to", Err: err}
		}
	}

	logging.Debug().
		Str("relation", rel.Name).
		Int64("rows", n).
		Msg("Replaced relation")

	return nil
}

func (s *postgresStore) Exists(ctx context.Context, relation string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_schema = current_schema() AND table_name = $1
        )
    `, relation).Scan(&exists)
	if err != nil {
		return false, &model.PersistenceError{Relation: relation, Op: "look up", Err: err}
	}
	return exists, nil
}

func (s *postgresStore) Dump(ctx context.Context, relation string, fn func(record []string) error) error {
	exists, err := s.Exists(ctx, relation)
	if err != nil {
		return err
	}
	if !exists {
		return &model.PersistenceError{Relation: relation, Op: "dump", Err: ErrRelationNotFound}
	}

	rows, err := s.pool.Query(ctx, "SELECT * FROM "+pgIdent(relation)+" ORDER BY 1, 2")
	if err != nil {
		return &model.PersistenceError{Relation: relation, Op: "dump", Err: err}
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	if err := fn(header); err != nil {
		return err
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
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

func (s *postgresStore) LastRun(ctx context.Context) (*Run, error) {
	var run Run
	err := s.pool.QueryRow(ctx, `
        SELECT run_id, source, table_prefix, version, started_at, finished_at,
               input_rows, cleaned_rows, dropped_rows, fact_rows
        FROM etl_runs
        ORDER BY finished_at DESC
        LIMIT 1
    `).Scan(&run.ID, &run.Source, &run.TablePrefix, &run.Version, &run.StartedAt, &run.FinishedAt,
		&run.InputRows, &run.CleanedRows, &run.DroppedRows, &run.FactRows)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.PersistenceError{Relation: runsTable, Op: "read", Err: err}
	}
	return &run, nil
}

func (s *postgresStore) Close() error {
	err := s.db.Close()
	s.pool.Close()
	return err
}
