// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loader

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/transform"
)

const (
	defaultBatchSize = 500
	// maxParams stays under the bind-parameter limit of every supported driver.
	maxParams = 30000
	oldSuffix = "_old"
)

// LoadStats reports a completed load.
type LoadStats struct {
	Rows     map[string]int64
	Duration time.Duration
}

// Total is the number of rows written across all tables.
func (s LoadStats) Total() int64 {
	var total int64
	for _, n := range s.Rows {
		total += n
	}
	return total
}

// Loader replaces the live tables with a transform result.
type Loader struct {
	db        *db.DB
	batchSize int
}

// New creates a loader writing to d.
func New(d *db.DB) *Loader {
	return &Loader{db: d, batchSize: defaultBatchSize}
}

// Load writes every table of res to staging tables and then swaps them in.
// Readers see either the previous tables or the new ones, never a mix. On
// failure a *LoadError is returned and the live tables are unchanged.
func (l *Loader) Load(ctx context.Context, res *transform.Result) (LoadStats, error) {
	if res == nil {
		return LoadStats{}, &LoadError{Phase: PhasePrepare, Err: errors.New("nil transform result")}
	}

	start := time.Now()
	rows := tableRows(res)

	slog.Info("starting data load", "tables", len(db.Tables), "dialect", l.db.Dialect)

	if err := l.dropTables(ctx, db.StagingSuffix); err != nil {
		return LoadStats{}, &LoadError{Phase: PhasePrepare, Err: err}
	}

	stats := LoadStats{Rows: make(map[string]int64, len(db.Tables))}
	if err := l.stage(ctx, rows, stats.Rows); err != nil {
		l.cleanup(db.StagingSuffix)
		return LoadStats{}, err
	}

	var err error
	if l.db.Dialect == db.MySQL {
		err = l.swapRename(ctx)
	} else {
		err = l.swapTx(ctx)
	}
	if err != nil {
		l.cleanup(db.StagingSuffix)
		return LoadStats{}, err
	}

	stats.Duration = time.Since(start)
	slog.Info("load complete",
		"rows", stats.Total(),
		"rows_human", humanize.Comma(stats.Total()),
		"duration", stats.Duration,
	)
	return stats, nil
}

// stage creates the staging tables and fills them in a single transaction.
func (l *Loader) stage(ctx context.Context, rows map[string][][]any, counts map[string]int64) error {
	dialect := l.db.Dialect

	// MySQL commits implicitly on DDL, so tables are created before the
	// insert transaction begins.
	for _, t := range db.Tables {
		name := t.Name + db.StagingSuffix
		if _, err := l.db.ExecContext(ctx, dialect.CreateTableSQL(t, name, false, true)); err != nil {
			return &LoadError{Phase: PhaseStage, Table: t.Name, Err: errors.Wrap(err, "creating staging table")}
		}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return &LoadError{Phase: PhaseStage, Err: errors.Wrap(err, "beginning transaction")}
	}
	defer tx.Rollback()

	for _, t := range db.Tables {
		n, err := l.insert(ctx, tx, t, rows[t.Name])
		if err != nil {
			return &LoadError{Phase: PhaseStage, Table: t.Name, Err: err}
		}
		counts[t.Name] = n
		slog.Info("table staged", "table", t.Name, "rows", n, "rows_human", humanize.Comma(n))
	}

	if err := tx.Commit(); err != nil {
		return &LoadError{Phase: PhaseStage, Err: errors.Wrap(err, "committing staging data")}
	}
	return nil
}

// insert writes rows into the staging copy of t in multi-row batches.
func (l *Loader) insert(ctx context.Context, tx *sql.Tx, t db.Table, rows [][]any) (int64, error) {
	name := t.Name + db.StagingSuffix
	size := l.batchSize
	if limit := maxParams / len(t.Columns); size > limit {
		size = limit
	}

	var full *sql.Stmt
	defer func() {
		if full != nil {
			full.Close()
		}
	}()

	var written int64
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		args := make([]any, 0, len(batch)*len(t.Columns))
		for _, row := range batch {
			args = append(args, row...)
		}

		var err error
		if len(batch) == size {
			if full == nil {
				if full, err = tx.PrepareContext(ctx, l.db.Dialect.InsertSQL(t, name, size)); err != nil {
					return written, errors.Wrap(err, "preparing insert")
				}
			}
			_, err = full.ExecContext(ctx, args...)
		} else {
			_, err = tx.ExecContext(ctx, l.db.Dialect.InsertSQL(t, name, len(batch)), args...)
		}
		if err != nil {
			return written, errors.Wrapf(err, "inserting rows %d-%d", start+1, end)
		}
		written += int64(len(batch))
	}
	return written, nil
}

// swapTx replaces each live table with its staging copy inside one
// transaction. Postgres and SQLite both support transactional DDL.
func (l *Loader) swapTx(ctx context.Context) error {
	dialect := l.db.Dialect

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return &LoadError{Phase: PhaseSwap, Err: errors.Wrap(err, "beginning transaction")}
	}
	defer tx.Rollback()

	for _, t := range db.Tables {
		stmts := []string{
			"DROP TABLE IF EXISTS " + t.Name,
			"ALTER TABLE " + t.Name + db.StagingSuffix + " RENAME TO " + t.Name,
		}
		if dialect == db.Postgres {
			stmts = append(stmts, "ALTER INDEX "+t.Name+db.StagingSuffix+"_pkey RENAME TO "+t.Name+"_pkey")
		}
		stmts = append(stmts, dialect.CreateIndexSQL(t, false)...)

		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return &LoadError{Phase: PhaseSwap, Table: t.Name, Err: errors.Wrapf(err, "executing %q", stmt)}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &LoadError{Phase: PhaseSwap, Err: errors.Wrap(err, "committing swap")}
	}
	return nil
}

// swapRename replaces every live table in one atomic RENAME TABLE statement.
// Staging tables already carry their indexes.
func (l *Loader) swapRename(ctx context.Context) error {
	dialect := l.db.Dialect

	if err := l.dropTables(ctx, oldSuffix); err != nil {
		return &LoadError{Phase: PhaseSwap, Err: err}
	}
	// RENAME TABLE needs every source table to exist.
	for _, t := range db.Tables {
		if _, err := l.db.ExecContext(ctx, dialect.CreateTableSQL(t, t.Name, true, true)); err != nil {
			return &LoadError{Phase: PhaseSwap, Table: t.Name, Err: errors.Wrap(err, "ensuring live table")}
		}
	}

	pairs := make([]string, 0, 2*len(db.Tables))
	for _, t := range db.Tables {
		pairs = append(pairs, t.Name+" TO "+t.Name+oldSuffix)
		pairs = append(pairs, t.Name+db.StagingSuffix+" TO "+t.Name)
	}
	if _, err := l.db.ExecContext(ctx, "RENAME TABLE "+strings.Join(pairs, ", ")); err != nil {
		return &LoadError{Phase: PhaseSwap, Err: errors.Wrap(err, "renaming tables")}
	}

	// The new data is live; failing to drop the old copies is not fatal.
	if err := l.dropTables(ctx, oldSuffix); err != nil {
		slog.Warn("failed to drop replaced tables", "error", err)
	}
	return nil
}

func (l *Loader) dropTables(ctx context.Context, suffix string) error {
	for _, t := range db.Tables {
		if _, err := l.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.Name+suffix); err != nil {
			return errors.Wrapf(err, "dropping %s%s", t.Name, suffix)
		}
	}
	return nil
}

// cleanup drops leftover tables after a failed load. It runs on a fresh
// context since the load's context may be the reason for the failure.
func (l *Loader) cleanup(suffix string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := l.dropTables(ctx, suffix); err != nil {
		slog.Error("failed to drop staging tables", "error", err)
	}
}
