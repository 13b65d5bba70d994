// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anirudhqwerty/kastack-project/cliparse"
	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/extract"
	"github.com/anirudhqwerty/kastack-project/loader"
	"github.com/anirudhqwerty/kastack-project/metrics"
	"github.com/anirudhqwerty/kastack-project/models"
	"github.com/anirudhqwerty/kastack-project/testutil"
	"github.com/anirudhqwerty/kastack-project/transform"
)

type recordingPublisher struct {
	mu   sync.Mutex
	runs []models.RunSummary
}

func (p *recordingPublisher) Publish(_ context.Context, run models.RunSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, run)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, models.RunSummary) error {
	return errors.New("broker down")
}
func (failingPublisher) Close() error { return nil }

func setup(t *testing.T, files map[string]string) (cliparse.Config, *db.DB) {
	t.Helper()
	cfg := testutil.GetTestConfig()
	cfg.DataDir = testutil.WriteSources(t, files)
	return cfg, testutil.SetupTestDB(t)
}

func TestRun_Success(t *testing.T) {
	cfg, d := setup(t, testutil.LargerSources())
	pub := &recordingPublisher{}
	m := metrics.New()

	summary, err := New(cfg, d, WithPublisher(pub), WithMetrics(m)).Run(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(summary.RunID)
	assert.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, summary.Status)
	assert.True(t, summary.Succeeded())
	assert.Equal(t, models.TriggerManual, summary.Trigger)
	assert.Empty(t, summary.Error)
	assert.Equal(t, map[string]int{"customers": 3, "orders": 4, "order_items": 5, "payments": 5}, summary.Extracted)
	assert.Equal(t, 6, summary.Joined)
	assert.Equal(t, 3, summary.Excluded)
	assert.Equal(t, 1, summary.ExcludedBy[transform.ReasonOrderOrphanCustomer])
	assert.Equal(t, int64(6), summary.Loaded[db.TableMaster])
	assert.False(t, summary.FinishedAt.Before(summary.StartedAt))
	assert.GreaterOrEqual(t, summary.DurationMS, int64(0))

	assert.Equal(t, 6, testutil.CountRows(t, d, db.TableMaster))

	require.Len(t, pub.runs, 1)
	assert.Equal(t, summary.RunID, pub.runs[0].RunID)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.RunsTotal.WithLabelValues(models.RunStatusSuccess)))
}

func TestRun_ExampleScenario(t *testing.T) {
	cfg, d := setup(t, testutil.ExampleSources())

	summary, err := New(cfg, d).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Joined)
	assert.Equal(t, 1, summary.ExcludedBy[transform.ReasonCustomerNoOrders])

	var rate, avg float64
	err = d.QueryRow("SELECT delivery_success_rate, avg_delivery_days FROM delivery_summary WHERE customer_state = 'SP'").Scan(&rate, &avg)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rate)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 2, testutil.CountRows(t, d, db.TableSalesSummary))
}

func TestRun_StructuralErrorsLeaveStorageUntouched(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, dir string)
		check  func(t *testing.T, err error)
	}{
		{
			name: "missing file",
			mutate: func(t *testing.T, dir string) {
				require.NoError(t, os.Remove(filepath.Join(dir, extract.DefaultFiles[extract.SourcePayments])))
			},
			check: func(t *testing.T, err error) {
				var notFound *extract.SourceNotFoundError
				require.True(t, errors.As(err, &notFound))
				assert.Equal(t, extract.SourcePayments, notFound.Source)
			},
		},
		{
			name: "missing column",
			mutate: func(t *testing.T, dir string) {
				path := filepath.Join(dir, extract.DefaultFiles[extract.SourceCustomers])
				require.NoError(t, os.WriteFile(path, []byte("customer_id,customer_city\nc1,x\n"), 0o644))
			},
			check: func(t *testing.T, err error) {
				var schemaErr *extract.SchemaError
				require.True(t, errors.As(err, &schemaErr))
				assert.Equal(t, "customer_unique_id", schemaErr.Column)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, d := setup(t, testutil.ExampleSources())
			r := New(cfg, d)

			_, err := r.Run(context.Background())
			require.NoError(t, err)

			tt.mutate(t, cfg.DataDir)
			summary, err := r.Run(context.Background())
			require.Error(t, err)
			tt.check(t, err)
			assert.True(t, IsPermanent(err))

			assert.Equal(t, models.RunStatusFailed, summary.Status)
			assert.NotEmpty(t, summary.Error)
			assert.Nil(t, summary.Loaded)
			assert.Equal(t, 2, testutil.CountRows(t, d, db.TableMaster))
		})
	}
}

func TestRun_LoadErrorIsReported(t *testing.T) {
	cfg, d := setup(t, testutil.ExampleSources())
	require.NoError(t, d.Close())

	summary, err := New(cfg, d).Run(context.Background())
	require.Error(t, err)

	var loadErr *loader.LoadError
	assert.True(t, errors.As(err, &loadErr))
	assert.False(t, IsPermanent(err))
	assert.Equal(t, models.RunStatusFailed, summary.Status)
	assert.Equal(t, 2, summary.Joined)
}

func TestRun_SingleFlight(t *testing.T) {
	cfg, d := setup(t, testutil.ExampleSources())
	pub := &recordingPublisher{}
	r := New(cfg, d, WithPublisher(pub))

	r.mu.Lock()
	summary, err := r.Run(context.Background())
	r.mu.Unlock()

	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, models.RunStatusSkipped, summary.Status)
	assert.Equal(t, 0, testutil.CountRows(t, d, db.TableMaster))
	require.Len(t, pub.runs, 1)
	assert.Equal(t, models.RunStatusSkipped, pub.runs[0].Status)

	_, err = r.Run(context.Background())
	assert.NoError(t, err)
}

func TestRun_LockFile(t *testing.T) {
	cfg, d := setup(t, testutil.ExampleSources())
	cfg.LockFile = filepath.Join(t.TempDir(), "olist-etl.lock")

	other := flock.New(cfg.LockFile)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	r := New(cfg, d)
	summary, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Equal(t, models.RunStatusSkipped, summary.Status)

	require.NoError(t, other.Unlock())
	summary, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, summary.Status)
}

func TestRun_RunnersSharingDatabaseRunOneAtATime(t *testing.T) {
	cfg, d := setup(t, testutil.LargerSources())
	cfg.LockFile = filepath.Join(t.TempDir(), "olist-etl.lock")

	first := New(cfg, d)
	second := New(cfg, d)

	locked, err := first.lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	summary, err := second.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Equal(t, models.RunStatusSkipped, summary.Status)
	assert.Equal(t, 0, testutil.CountRows(t, d, db.TableMaster))

	require.NoError(t, first.lock.Unlock())

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, r := range []*Runner{first, second} {
		wg.Add(1)
		go func(i int, r *Runner) {
			defer wg.Done()
			_, results[i] = r.Run(context.Background())
		}(i, r)
	}
	wg.Wait()

	for _, err := range results {
		if err != nil {
			assert.ErrorIs(t, err, ErrRunInProgress)
		}
	}
	assert.Equal(t, 6, testutil.CountRows(t, d, db.TableMaster))

	_, err = second.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, testutil.CountRows(t, d, db.TableMaster))
}

func TestRun_ConcurrentCallsRunOnce(t *testing.T) {
	cfg, d := setup(t, testutil.LargerSources())
	r := New(cfg, d)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = r.Run(context.Background())
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrRunInProgress)
	}
	assert.GreaterOrEqual(t, ok, 1)
	assert.Equal(t, 6, testutil.CountRows(t, d, db.TableMaster))
}

func TestRun_ExcludePolicy(t *testing.T) {
	files := testutil.ExampleSources()
	files["orders"] = testutil.OrdersHeader +
		"o1,c1,delivered,2018-01-06 10:00:00,,,2018-01-01 10:00:00,2018-01-10 00:00:00\n" +
		"o2,c2,shipped,2018-01-02 12:00:00,,,,2018-01-12 00:00:00\n"
	cfg, d := setup(t, files)
	cfg.DeliveryPolicy = cliparse.DeliveryPolicyExclude

	summary, err := New(cfg, d).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Anomalies)
	assert.Equal(t, 1, summary.Joined)
	assert.Equal(t, 1, summary.ExcludedBy[transform.ReasonOrderDeliveryAnomaly])
}

func TestRun_PublishFailureDoesNotFailRun(t *testing.T) {
	cfg, d := setup(t, testutil.ExampleSources())

	summary, err := New(cfg, d, WithPublisher(failingPublisher{})).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, summary.Status)
}
