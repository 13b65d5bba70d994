// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loader

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/extract"
	"github.com/anirudhqwerty/kastack-project/testutil"
	"github.com/anirudhqwerty/kastack-project/transform"
)

func transformed(t *testing.T, files map[string]string) *transform.Result {
	t.Helper()

	dir := testutil.WriteSources(t, files)
	src, err := extract.NewExtractor(dir, nil).Extract(context.Background())
	require.NoError(t, err)
	res, err := transform.Transform(src, transform.Options{})
	require.NoError(t, err)
	return res
}

// snapshot returns every row of every live table in primary key order.
func snapshot(t *testing.T, d *db.DB) map[string][]string {
	t.Helper()

	out := map[string][]string{}
	for _, table := range db.Tables {
		rows, err := d.Query("SELECT * FROM " + table.Name + " ORDER BY " + strings.Join(table.PrimaryKey, ", "))
		require.NoError(t, err)

		cols, err := rows.Columns()
		require.NoError(t, err)
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			require.NoError(t, rows.Scan(ptrs...))
			out[table.Name] = append(out[table.Name], fmt.Sprint(vals...))
		}
		require.NoError(t, rows.Err())
		rows.Close()
	}
	return out
}

func stagingTables(t *testing.T, d *db.DB) []string {
	t.Helper()

	var leftover []string
	for _, table := range db.Tables {
		exists, err := db.TableExists(context.Background(), d, table.Name+db.StagingSuffix)
		require.NoError(t, err)
		if exists {
			leftover = append(leftover, table.Name)
		}
	}
	return leftover
}

func TestLoad_WritesAllTables(t *testing.T) {
	d := testutil.SetupTestDB(t)
	res := transformed(t, testutil.LargerSources())

	stats, err := New(d).Load(context.Background(), res)
	require.NoError(t, err)

	want := map[string]int64{
		db.TableCustomers:       3,
		db.TableOrders:          4,
		db.TableOrderItems:      5,
		db.TablePayments:        5,
		db.TableMaster:          6,
		db.TableSalesSummary:    3,
		db.TableDeliverySummary: 2,
		db.TableProductSummary:  3,
		db.TableStateSummary:    2,
	}
	assert.Equal(t, want, stats.Rows)
	for table, n := range want {
		assert.Equal(t, int(n), testutil.CountRows(t, d, table), table)
	}
	assert.Empty(t, stagingTables(t, d))

	var spent decimal.Decimal
	err = d.QueryRow(d.Rebind("SELECT total_spent FROM sales_summary WHERE customer_id = ?"), "c3").Scan(&spent)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("120.50").Equal(spent), "got %s", spent)

	var rate *float64
	err = d.QueryRow(d.Rebind("SELECT on_time_rate FROM delivery_summary WHERE customer_state = ?"), "RJ").Scan(&rate)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 0.0, *rate)

	// Undelivered order keeps a NULL duration
	var days *float64
	err = d.QueryRow(d.Rebind("SELECT delivery_days FROM master WHERE order_id = ?"), "o2").Scan(&days)
	require.NoError(t, err)
	assert.Nil(t, days)
}

func TestLoad_CreatesIndexes(t *testing.T) {
	d := testutil.OpenTestDB(t)

	_, err := New(d).Load(context.Background(), transformed(t, testutil.ExampleSources()))
	require.NoError(t, err)

	for _, table := range db.Tables {
		for _, col := range table.IndexColumns() {
			var n int
			err := d.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ? AND tbl_name = ?",
				table.IndexName(col), table.Name).Scan(&n)
			require.NoError(t, err)
			assert.Equal(t, 1, n, "index %s", table.IndexName(col))
		}
	}
}

func TestLoad_Idempotent(t *testing.T) {
	d := testutil.SetupTestDB(t)
	l := New(d)
	ctx := context.Background()

	_, err := l.Load(ctx, transformed(t, testutil.LargerSources()))
	require.NoError(t, err)
	first := snapshot(t, d)

	_, err = l.Load(ctx, transformed(t, testutil.LargerSources()))
	require.NoError(t, err)
	second := snapshot(t, d)

	assert.Equal(t, first, second)
	assert.Len(t, second[db.TableMaster], 6)
}

func TestLoad_ReplacesPreviousContents(t *testing.T) {
	d := testutil.SetupTestDB(t)
	l := New(d)
	ctx := context.Background()

	_, err := l.Load(ctx, transformed(t, testutil.LargerSources()))
	require.NoError(t, err)
	_, err = l.Load(ctx, transformed(t, testutil.ExampleSources()))
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CountRows(t, d, db.TableMaster))
	assert.Equal(t, 2, testutil.CountRows(t, d, db.TableSalesSummary))
	assert.Equal(t, 2, testutil.CountRows(t, d, db.TableOrders))
}

func TestLoad_FailureKeepsPriorData(t *testing.T) {
	d := testutil.SetupTestDB(t)
	l := New(d)
	ctx := context.Background()

	_, err := l.Load(ctx, transformed(t, testutil.LargerSources()))
	require.NoError(t, err)
	before := snapshot(t, d)

	// A duplicate primary key fails the staging insert
	bad := transformed(t, testutil.ExampleSources())
	bad.Customers = append(bad.Customers, bad.Customers[0])

	_, err = l.Load(ctx, bad)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, PhaseStage, loadErr.Phase)
	assert.Equal(t, db.TableCustomers, loadErr.Table)
	assert.Contains(t, err.Error(), "customers")

	assert.Equal(t, before, snapshot(t, d))
	assert.Empty(t, stagingTables(t, d))
}

func TestLoad_CanceledContext(t *testing.T) {
	d := testutil.SetupTestDB(t)
	l := New(d)

	_, err := l.Load(context.Background(), transformed(t, testutil.ExampleSources()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Load(ctx, transformed(t, testutil.LargerSources()))
	require.Error(t, err)

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 2, testutil.CountRows(t, d, db.TableMaster))
	assert.Empty(t, stagingTables(t, d))
}

func TestLoad_NilResult(t *testing.T) {
	d := testutil.SetupTestDB(t)

	_, err := New(d).Load(context.Background(), nil)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, PhasePrepare, loadErr.Phase)
}

func TestLoad_Batches(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
	}{
		{"single row", 1},
		{"batch with remainder", 4},
		{"exact batches", 3},
		{"larger than table", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testutil.SetupTestDB(t)
			l := New(d)
			l.batchSize = tt.batchSize

			stats, err := l.Load(context.Background(), transformed(t, testutil.LargerSources()))
			require.NoError(t, err)
			assert.Equal(t, int64(6), stats.Rows[db.TableMaster])
			assert.Equal(t, 6, testutil.CountRows(t, d, db.TableMaster))
		})
	}
}

func TestLoad_ConcurrentReadersSeeCompleteTables(t *testing.T) {
	d := testutil.SetupTestDB(t)
	l := New(d)
	ctx := context.Background()

	small := transformed(t, testutil.ExampleSources())
	large := transformed(t, testutil.LargerSources())
	_, err := l.Load(ctx, small)
	require.NoError(t, err)

	var stop atomic.Bool
	var wg sync.WaitGroup
	var reads atomic.Int64
	bad := make(chan string, 100)
	report := func(msg string) {
		select {
		case bad <- msg:
		default:
		}
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				var master, sales int
				conn, err := d.Conn(ctx)
				if err != nil {
					report(err.Error())
					return
				}
				// Both counts come from one read transaction.
				tx, err := conn.BeginTx(ctx, nil)
				if err == nil {
					err = tx.QueryRow("SELECT COUNT(*) FROM master").Scan(&master)
				}
				if err == nil {
					err = tx.QueryRow("SELECT COUNT(*) FROM sales_summary").Scan(&sales)
				}
				if tx != nil {
					tx.Rollback()
				}
				conn.Close()
				if err != nil {
					report(err.Error())
					return
				}
				if !(master == 2 && sales == 2) && !(master == 6 && sales == 3) {
					report(fmt.Sprintf("inconsistent state: master=%d sales=%d", master, sales))
				}
				reads.Add(1)
			}
		}()
	}

	for i := 0; i < 10; i++ {
		res := large
		if i%2 == 1 {
			res = small
		}
		_, err := l.Load(ctx, res)
		require.NoError(t, err)
	}
	stop.Store(true)
	wg.Wait()
	close(bad)

	for msg := range bad {
		t.Error(msg)
	}
	assert.Positive(t, reads.Load())
}
