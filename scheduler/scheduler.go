// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/anirudhqwerty/kastack-project/cliparse"
	"github.com/anirudhqwerty/kastack-project/models"
	"github.com/anirudhqwerty/kastack-project/pipeline"
)

// Runner executes one pipeline run.
type Runner interface {
	RunTrigger(ctx context.Context, trigger string) (models.RunSummary, error)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug(msg, append([]interface{}{"component", "cron"}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error(msg, append([]interface{}{"component", "cron", "error", err}, keysAndValues...)...)
}

// Scheduler runs the pipeline on a fixed interval and on demand, retrying
// failed runs.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	retries  int
	delay    time.Duration
	history  *History
	cron     *cron.Cron

	// ctx is canceled by Stop and bounds scheduled runs.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// New creates a scheduler using the interval and retry policy of cfg.
func New(runner Runner, cfg cliparse.Config) *Scheduler {
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:   runner,
		interval: cfg.ScheduleInterval,
		retries:  cfg.RetryAttempts,
		delay:    cfg.RetryDelay,
		history:  NewHistory(DefaultHistorySize),
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// History returns the run history shared with the API.
func (s *Scheduler) History() *History {
	return s.history
}

// Start begins scheduled runs. The first one fires one interval from now.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("scheduler already started")
	}
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		// Errors are recorded in the history and logged by the runner.
		_, _ = s.Trigger(s.ctx, models.TriggerSchedule)
	}); err != nil {
		return errors.Wrapf(err, "scheduling %q", spec)
	}
	s.cron.Start()
	s.started = true

	slog.Info("scheduler started", "interval", s.interval, "retries", s.retries, "retry_delay", s.delay)
	return nil
}

// Stop halts scheduling, cancels an active scheduled run and waits for it to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	s.cancel()
	if !started {
		return nil
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for running job")
	}
}

// Trigger runs the pipeline now with the retry policy. Every attempt is
// recorded; the last attempt's summary is returned.
func (s *Scheduler) Trigger(ctx context.Context, trigger string) (models.RunSummary, error) {
	var last models.RunSummary
	attempt := 0

	operation := func() error {
		attempt++
		summary, err := s.runner.RunTrigger(ctx, trigger)
		last = summary
		s.history.Add(summary)
		if err == nil {
			return nil
		}
		if pipeline.IsPermanent(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		slog.Warn("pipeline run attempt failed", "attempt", attempt, "max_retries", s.retries, "error", err)
		return err
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(s.delay)
	b = backoff.WithMaxRetries(b, uint64(max(s.retries, 0)))
	b = backoff.WithContext(b, ctx)

	err := backoff.Retry(operation, b)
	return last, err
}
