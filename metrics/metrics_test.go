// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anirudhqwerty/kastack-project/models"
)

func TestObserveRun(t *testing.T) {
	m := New()
	finished := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	m.ObserveRun(models.RunSummary{
		Status:     models.RunStatusSuccess,
		FinishedAt: finished,
		DurationMS: 1500,
		Extracted:  map[string]int{"customers": 3, "orders": 2},
		Joined:     2,
		Excluded:   1,
		ExcludedBy: map[string]int{"customers_without_orders": 1},
		Loaded:     map[string]int64{"master": 2, "sales_summary": 2},
	})
	m.ObserveRun(models.RunSummary{Status: models.RunStatusSkipped})
	m.ObserveRun(models.RunSummary{
		Status:     models.RunStatusFailed,
		DurationMS: 10,
		ExcludedBy: map[string]int{"customers_without_orders": 2},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(models.RunStatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(models.RunStatusSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(models.RunStatusFailed)))

	assert.Equal(t, 5.0, testutil.ToFloat64(m.Rows.WithLabelValues(StageExtracted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rows.WithLabelValues(StageJoined)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Rows.WithLabelValues(StageLoaded)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExcludedTotal.WithLabelValues("customers_without_orders")))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(m.LastSuccess))

	// Skipped runs are not timed
	families, err := m.registry.Gather()
	require.NoError(t, err)
	var samples uint64
	for _, f := range families {
		if f.GetName() == "olist_pipeline_run_duration_seconds" {
			samples = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), samples)
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/customers", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/customers", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "/customers/{id}", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/customers", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/customers/{id}", "404")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRun(models.RunSummary{Status: models.RunStatusSuccess, FinishedAt: time.Now()})

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `olist_pipeline_runs_total{status="success"} 1`), body)
	assert.Contains(t, body, "olist_pipeline_last_success_timestamp_seconds")
}
