// Package export writes stored relations to CSV files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pgEdge/pgedge-sales-etl/internal/logging"
	"github.com/pgEdge/pgedge-sales-etl/internal/sink"
)

// Options configures an export.
type Options struct {
	// Dir receives one <relation>.csv file per relation.
	Dir string

	// TablePrefix is the prefix the relations were written with.
	TablePrefix string
}

// Result lists the files written, keyed by relation name.
type Result struct {
	Files map[string]string
	Rows  map[string]int
}

// Export dumps every star schema relation present in store to CSV. Derived
// tables are exported when they exist.
func Export(ctx context.Context, store sink.Store, opts Options) (*Result, error) {
	if err := ensureDir(opts.Dir); err != nil {
		return nil, err
	}

	result := &Result{
		Files: make(map[string]string),
		Rows:  make(map[string]int),
	}

	for _, base := range sink.RelationNames(true) {
		name := sink.TableName(opts.TablePrefix, base)
		exists, err := store.Exists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !exists {
			logging.Debug().
				Str("relation", name).
				Msg("Relation not present; skipping")
			continue
		}

		path := filepath.Join(opts.Dir, name+".csv")
		rows, err := exportRelation(ctx, store, name, path)
		if err != nil {
			return nil, err
		}
		result.Files[name] = path
		result.Rows[name] = rows

		logging.Info().
			Str("relation", name).
			Str("file", path).
			Int("rows", rows).
			Msg("Exported relation")
	}

	if len(result.Files) == 0 {
		return nil, fmt.Errorf("no relations with prefix %q found; run the pipeline first", opts.TablePrefix)
	}

	return result, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("export path %s exists and is not a directory", dir)
	case err == nil:
		return nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("failed to stat export directory: %w", err)
	}
}

func exportRelation(ctx context.Context, store sink.Store, relation, path string) (rows int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	header := true
	err = store.Dump(ctx, relation, func(record []string) error {
		if !header {
			rows++
		}
		header = false
		return w.Write(record)
	})
	if err != nil {
		return 0, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return rows, nil
}
