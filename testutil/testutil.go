// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/anirudhqwerty/kastack-project/cliparse"
	"github.com/anirudhqwerty/kastack-project/db"
)

// TestDBURL returns a sqlite DSN for a fresh database file in a temp dir.
func TestDBURL(t *testing.T) string {
	t.Helper()
	return "file:" + filepath.Join(t.TempDir(), "olist_test.db")
}

// OpenTestDB opens a fresh, empty sqlite database that is closed when the
// test ends.
func OpenTestDB(t *testing.T) *db.DB {
	t.Helper()

	cfg := GetTestConfig()
	cfg.DatabaseURL = TestDBURL(t)

	d, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// SetupTestDB creates a fresh test database with the full schema
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	d := OpenTestDB(t)
	if err := db.CreateSchema(context.Background(), d); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return d
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseType:     cliparse.DatabaseSQLite,
		DBName:           "olist_test",
		DataDir:          "data",
		ScheduleInterval: time.Hour,
		DeliveryPolicy:   cliparse.DeliveryPolicyFlag,
		RetryAttempts:    0,
		RetryDelay:       time.Millisecond,
		KafkaTopic:       "olist-pipeline-runs",
	}
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, d *db.DB, table string) int {
	t.Helper()

	var n int
	if err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
