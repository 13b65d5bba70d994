// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package loader writes a transform result into the database with full-refresh,
atomic-replace semantics.

# Usage

	l := loader.New(conn)
	stats, err := l.Load(ctx, res)
	if err != nil {
		var loadErr *loader.LoadError
		if errors.As(err, &loadErr) {
			slog.Error("load failed", "phase", loadErr.Phase, "table", loadErr.Table)
		}
	}

# Phases

prepare: leftover <table>_staging tables from an interrupted load are dropped.

stage: a staging table is created for each of the nine tables and all rows
are inserted in one transaction with multi-row prepared INSERTs.

swap: the staging tables replace the live ones.

  - Postgres and SQLite: one transaction drops each live table, renames its
    staging copy and creates the canonical indexes.
  - MySQL: staging tables are created with their indexes, then a single
    RENAME TABLE statement swaps all nine tables and the old copies are
    dropped.

Concurrent readers see either the old set of tables or the new one.

# Failures

Every failure returns *LoadError{Phase, Table, Err}. Staging tables are
dropped and live tables keep their previous contents.

Loading the same result twice leaves the database in the same state.
*/
package loader
