// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package pipeline runs extract, transform and load as a single unit.

# Usage

	runner := pipeline.New(cfg, conn,
		pipeline.WithMetrics(m),
		pipeline.WithPublisher(pub),
	)
	summary, err := runner.Run(ctx)

Run always returns a models.RunSummary, also on failure:

  - run_id: random UUID
  - status: success, failed or skipped
  - rows_extracted per source, rows_joined, rows_excluded (with reasons),
    parse_errors per field, delivery_anomalies, rows_loaded per table
  - started_at, finished_at, duration_ms

# Single Flight

Only one run executes at a time. A second call made while a run is active
returns ErrRunInProgress with status skipped and touches nothing. The same
holds across processes on one host through Config.LockFile (gofrs/flock), and
across hosts sharing a postgres or mysql database through a database advisory
lock (db.TryRunLock).

# Failures

Stage errors are wrapped with the stage name; the typed errors stay
reachable with errors.As:

  - *extract.SourceNotFoundError, *extract.SchemaError: abort before storage is touched
  - *loader.LoadError: live tables keep their previous contents

IsPermanent reports the errors that a retry cannot fix.

Every finished run is counted in metrics and published when a publisher is
configured. Publish failures are logged and do not fail the run.
*/
package pipeline
