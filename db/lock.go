// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
)

// RunLockName names the advisory lock held by a pipeline run.
const RunLockName = "olist-etl-run"

// TryRunLock takes the database-wide advisory lock name without waiting. It
// returns ok false when another session holds it. On postgres and mysql the
// lock lives on a dedicated connection until release is called; sqlite has
// no advisory locks, so ok is always true there.
func TryRunLock(ctx context.Context, d *DB, name string) (release func(), ok bool, err error) {
	var lockSQL, unlockSQL string
	switch d.Dialect {
	case Postgres:
		lockSQL = "SELECT pg_try_advisory_lock(hashtext($1))"
		unlockSQL = "SELECT pg_advisory_unlock(hashtext($1))"
	case MySQL:
		lockSQL = "SELECT COALESCE(GET_LOCK(?, 0), 0) = 1"
		unlockSQL = "SELECT RELEASE_LOCK(?)"
	default:
		return func() {}, true, nil
	}

	conn, err := d.Conn(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "reserving lock connection")
	}

	if err := conn.QueryRowContext(ctx, lockSQL, name).Scan(&ok); err != nil {
		conn.Close()
		return nil, false, errors.Wrapf(err, "acquiring advisory lock %s", name)
	}
	if !ok {
		conn.Close()
		return nil, false, nil
	}

	return func() { unlock(conn, unlockSQL, name) }, true, nil
}

func unlock(conn *sql.Conn, unlockSQL, name string) {
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := conn.ExecContext(ctx, unlockSQL, name); err != nil {
		slog.Warn("failed to release advisory lock", "lock", name, "error", err)
	}
}
