// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/anirudhqwerty/kastack-project/cliparse"
	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/extract"
	"github.com/anirudhqwerty/kastack-project/loader"
	"github.com/anirudhqwerty/kastack-project/metrics"
	"github.com/anirudhqwerty/kastack-project/models"
	"github.com/anirudhqwerty/kastack-project/notify"
	"github.com/anirudhqwerty/kastack-project/transform"
)

// ErrRunInProgress is returned when another run holds the pipeline.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Runner executes extract, transform and load as one run. At most one run is
// active per process, per lock file, and per database on dialects with
// advisory locks.
type Runner struct {
	extractor *extract.Extractor
	loader    *loader.Loader
	db        *db.DB
	policy    string
	lock      *flock.Flock
	metrics   *metrics.Metrics
	publisher notify.Publisher

	mu sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records every run in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithPublisher announces every run through p.
func WithPublisher(p notify.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithExtractor replaces the extractor built from the config.
func WithExtractor(e *extract.Extractor) Option {
	return func(r *Runner) { r.extractor = e }
}

// New creates a runner reading from cfg.DataDir and loading into d.
func New(cfg cliparse.Config, d *db.DB, opts ...Option) *Runner {
	r := &Runner{
		extractor: extract.NewExtractor(cfg.DataDir, nil),
		loader:    loader.New(d),
		db:        d,
		policy:    cfg.DeliveryPolicy,
		publisher: notify.Nop{},
	}
	if cfg.LockFile != "" {
		r.lock = flock.New(cfg.LockFile)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one manually triggered run.
func (r *Runner) Run(ctx context.Context) (models.RunSummary, error) {
	return r.RunTrigger(ctx, models.TriggerManual)
}

// RunTrigger executes one run. The summary is returned even when the run
// fails or is skipped.
func (r *Runner) RunTrigger(ctx context.Context, trigger string) (models.RunSummary, error) {
	summary := models.RunSummary{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
	}

	if !r.mu.TryLock() {
		return r.finish(ctx, summary, ErrRunInProgress), ErrRunInProgress
	}
	defer r.mu.Unlock()

	if r.lock != nil {
		locked, err := r.lock.TryLock()
		if err != nil {
			err = errors.Wrapf(err, "acquiring lock file %s", r.lock.Path())
			return r.finish(ctx, summary, err), err
		}
		if !locked {
			return r.finish(ctx, summary, ErrRunInProgress), ErrRunInProgress
		}
		defer r.lock.Unlock()
	}

	release, locked, err := db.TryRunLock(ctx, r.db, db.RunLockName)
	if err != nil {
		return r.finish(ctx, summary, err), err
	}
	if !locked {
		return r.finish(ctx, summary, ErrRunInProgress), ErrRunInProgress
	}
	defer release()

	slog.Info("pipeline run started", "run_id", summary.RunID, "trigger", trigger)
	err = r.execute(ctx, &summary)
	return r.finish(ctx, summary, err), err
}

func (r *Runner) execute(ctx context.Context, summary *models.RunSummary) error {
	src, err := r.extractor.Extract(ctx)
	if err != nil {
		return errors.Wrap(err, "extract")
	}
	summary.Extracted = src.Counts()

	res, err := transform.Transform(src, transform.Options{DeliveryPolicy: r.policy})
	if err != nil {
		return errors.Wrap(err, "transform")
	}
	summary.Joined = len(res.Master)
	summary.Excluded = res.Stats.ExcludedTotal()
	summary.ExcludedBy = res.Stats.Excluded
	summary.ParseErrors = res.Stats.ParseErrors
	summary.Anomalies = res.Stats.Anomalies

	if err := ctx.Err(); err != nil {
		return err
	}

	stats, err := r.loader.Load(ctx, res)
	if err != nil {
		return errors.Wrap(err, "load")
	}
	summary.Loaded = stats.Rows
	return nil
}

// finish stamps the outcome on summary, logs it and reports it.
func (r *Runner) finish(ctx context.Context, summary models.RunSummary, err error) models.RunSummary {
	summary.FinishedAt = time.Now().UTC()
	summary.DurationMS = summary.FinishedAt.Sub(summary.StartedAt).Milliseconds()

	switch {
	case err == nil:
		summary.Status = models.RunStatusSuccess
		slog.Info("pipeline run succeeded",
			"run_id", summary.RunID,
			"rows_joined", summary.Joined,
			"rows_joined_human", humanize.Comma(int64(summary.Joined)),
			"rows_excluded", summary.Excluded,
			"duration_ms", summary.DurationMS,
		)
	case errors.Is(err, ErrRunInProgress):
		summary.Status = models.RunStatusSkipped
		summary.Error = err.Error()
		slog.Warn("pipeline run skipped", "run_id", summary.RunID, "trigger", summary.Trigger, "reason", err)
	default:
		summary.Status = models.RunStatusFailed
		summary.Error = err.Error()
		slog.Error("pipeline run failed", "run_id", summary.RunID, "error", err, "duration_ms", summary.DurationMS)
	}

	if r.metrics != nil {
		r.metrics.ObserveRun(summary)
	}

	// A canceled run context must not stop the announcement of its outcome.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if perr := r.publisher.Publish(pubCtx, summary); perr != nil {
		slog.Error("failed to publish run event", "run_id", summary.RunID, "error", perr)
	}
	return summary
}

// IsPermanent reports whether retrying a failed run cannot help.
func IsPermanent(err error) bool {
	var notFound *extract.SourceNotFoundError
	var schemaErr *extract.SchemaError
	return errors.Is(err, ErrRunInProgress) ||
		errors.As(err, &notFound) ||
		errors.As(err, &schemaErr)
}
