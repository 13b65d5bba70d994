// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anirudhqwerty/kastack-project/cliparse"
	"github.com/anirudhqwerty/kastack-project/extract"
	"github.com/anirudhqwerty/kastack-project/models"
	"github.com/anirudhqwerty/kastack-project/pipeline"
)

// fakeRunner returns the queued errors in order, then succeeds.
type fakeRunner struct {
	mu       sync.Mutex
	errs     []error
	calls    int
	triggers []string
	block    chan struct{}
}

func (f *fakeRunner) RunTrigger(ctx context.Context, trigger string) (models.RunSummary, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return models.RunSummary{Status: models.RunStatusFailed}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.triggers = append(f.triggers, trigger)

	summary := models.RunSummary{RunID: fmt.Sprintf("run-%d", f.calls), Trigger: trigger}
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			summary.Status = models.RunStatusFailed
			summary.Error = err.Error()
			return summary, err
		}
	}
	summary.Status = models.RunStatusSuccess
	return summary, nil
}

func (f *fakeRunner) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig(retries int) cliparse.Config {
	return cliparse.Config{
		ScheduleInterval: time.Hour,
		RetryAttempts:    retries,
		RetryDelay:       time.Millisecond,
	}
}

func TestTrigger_Retries(t *testing.T) {
	transient := errors.New("connection refused")

	tests := []struct {
		name       string
		retries    int
		errs       []error
		wantCalls  int
		wantErr    bool
		wantStatus string
	}{
		{"success first time", 3, nil, 1, false, models.RunStatusSuccess},
		{"recovers after transient failures", 3, []error{transient, transient}, 3, false, models.RunStatusSuccess},
		{"gives up after retries", 2, []error{transient, transient, transient, transient}, 3, true, models.RunStatusFailed},
		{"no retries configured", 0, []error{transient}, 1, true, models.RunStatusFailed},
		{"schema error is permanent", 3, []error{&extract.SchemaError{Source: "orders", Column: "order_id"}}, 1, true, models.RunStatusFailed},
		{"missing source is permanent", 3, []error{errors.Wrap(&extract.SourceNotFoundError{Source: "payments"}, "extract")}, 1, true, models.RunStatusFailed},
		{"run in progress is not retried", 3, []error{pipeline.ErrRunInProgress}, 1, true, models.RunStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{errs: tt.errs}
			s := New(runner, testConfig(tt.retries))

			summary, err := s.Trigger(context.Background(), models.TriggerManual)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, runner.Calls())
			assert.Equal(t, tt.wantStatus, summary.Status)
			assert.Len(t, s.History().Recent(0), tt.wantCalls)
		})
	}
}

func TestTrigger_PermanentErrorKeepsType(t *testing.T) {
	runner := &fakeRunner{errs: []error{&extract.SchemaError{Source: "orders", Column: "order_id"}}}
	s := New(runner, testConfig(3))

	_, err := s.Trigger(context.Background(), models.TriggerManual)
	var schemaErr *extract.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "order_id", schemaErr.Column)
}

func TestTrigger_CanceledWhileWaiting(t *testing.T) {
	runner := &fakeRunner{errs: []error{errors.New("boom"), errors.New("boom")}}
	cfg := testConfig(5)
	cfg.RetryDelay = time.Hour
	s := New(runner, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Trigger(ctx, models.TriggerManual)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, runner.Calls())
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	runner := &fakeRunner{}
	cfg := testConfig(0)
	cfg.ScheduleInterval = time.Second
	s := New(runner, cfg)

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second start")

	require.Eventually(t, func() bool { return runner.Calls() >= 1 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	last, ok := s.History().Last()
	require.True(t, ok)
	assert.Equal(t, models.TriggerSchedule, last.Trigger)
}

func TestScheduler_StopCancelsActiveRun(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	cfg := testConfig(0)
	cfg.ScheduleInterval = time.Second
	s := New(runner, cfg)
	require.NoError(t, s.Start())

	// Wait for the scheduled run to start blocking
	time.Sleep(1500 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := New(&fakeRunner{}, testConfig(0))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestHistory(t *testing.T) {
	h := NewHistory(3)

	_, ok := h.Last()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		status := models.RunStatusSuccess
		if i == 5 {
			status = models.RunStatusFailed
		}
		h.Add(models.RunSummary{RunID: fmt.Sprintf("run-%d", i), Status: status})
	}

	recent := h.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "run-5", recent[0].RunID)
	assert.Equal(t, "run-3", recent[2].RunID)

	assert.Len(t, h.Recent(2), 2)
	assert.Len(t, h.Recent(10), 3)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "run-5", last.RunID)

	success, ok := h.LastSuccess()
	require.True(t, ok)
	assert.Equal(t, "run-4", success.RunID)
}
