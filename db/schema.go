// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"

	"github.com/cockroachdb/errors"
)

// CreateSchema creates every live table and its indexes.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, d *DB) error {
	for _, t := range Tables {
		if _, err := d.ExecContext(ctx, d.Dialect.CreateTableSQL(t, t.Name, true, true)); err != nil {
			return errors.Wrapf(err, "failed to create table %s", t.Name)
		}
		for _, stmt := range d.Dialect.CreateIndexSQL(t, true) {
			if _, err := d.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "failed to create indexes on %s", t.Name)
			}
		}
	}
	return nil
}

// TableExists reports whether a table is present in the connected database.
func TableExists(ctx context.Context, d *DB, name string) (bool, error) {
	var query string
	switch d.Dialect {
	case SQLite:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case MySQL:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	default:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	}

	var n int
	if err := d.QueryRowContext(ctx, d.Rebind(query), name).Scan(&n); err != nil {
		return false, errors.Wrapf(err, "checking table %s", name)
	}
	return n > 0, nil
}
