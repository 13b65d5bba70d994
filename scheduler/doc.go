// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler runs the pipeline on an interval and on demand.

# Usage

	s := scheduler.New(runner, cfg)
	if err := s.Start(); err != nil {
		log.Fatal(err)
	}
	defer s.Stop(ctx)

	// manual run, same retry policy
	summary, err := s.Trigger(ctx, models.TriggerManual)

Scheduling uses robfig/cron/v3 with "@every <ScheduleInterval>". A tick that
arrives while the previous scheduled run is still active is skipped
(cron.SkipIfStillRunning), on top of the runner's own single-flight guard.

# Retries

A failed run is retried up to RetryAttempts times with a constant RetryDelay
(cenkalti/backoff/v4). Missing sources, missing columns and
pipeline.ErrRunInProgress are not retried.

# History

Every attempt is kept in an in-memory History of the last 50 runs, served by
GET /pipeline/runs and used by GET /health.
*/
package scheduler
