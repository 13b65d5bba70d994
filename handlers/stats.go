// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/middleware"
	"github.com/anirudhqwerty/kastack-project/models"
)

// topStates is how many states GET /stats/summary reports.
const topStates = 10

type StatsHandler struct {
	db *db.DB
}

func NewStatsHandler(d *db.DB) *StatsHandler {
	return &StatsHandler{db: d}
}

// Summary handles GET /stats/summary
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.summary(r.Context())
	if err != nil {
		slog.Error("failed to compute stats summary", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stats)
}

func (h *StatsHandler) summary(ctx context.Context) (models.StatsSummary, error) {
	stats := models.StatsSummary{
		StatusBreakdown:  map[string]int{},
		CustomersByState: map[string]int{},
	}

	counts := []struct {
		table string
		dest  *int
	}{
		{db.TableCustomers, &stats.TotalCustomers},
		{db.TableOrders, &stats.TotalOrders},
		{db.TableOrderItems, &stats.TotalOrderItems},
		{db.TablePayments, &stats.TotalPayments},
	}
	for _, c := range counts {
		if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			return stats, errors.Wrapf(err, "counting %s", c.table)
		}
	}

	if err := h.groupCounts(ctx, stats.StatusBreakdown,
		"SELECT order_status, COUNT(*) FROM orders GROUP BY order_status"); err != nil {
		return stats, errors.Wrap(err, "order status breakdown")
	}

	// Average payment is total revenue over payments with a value, in cents.
	var (
		revenue *decimal.Decimal
		valued  int64
	)
	err := h.db.QueryRowContext(ctx,
		"SELECT SUM(payment_value), COUNT(payment_value) FROM payments").Scan(&revenue, &valued)
	if err != nil {
		return stats, errors.Wrap(err, "summing payments")
	}
	if revenue != nil {
		stats.TotalRevenue = revenue.Round(2)
	}
	if valued > 0 {
		avg := stats.TotalRevenue.DivRound(decimal.NewFromInt(valued), 2)
		stats.AveragePayment = &avg
	}

	query := h.db.Rebind("SELECT customer_state, COUNT(*) AS n FROM customers GROUP BY customer_state " +
		"ORDER BY n DESC, customer_state LIMIT ?")
	if err := h.groupCounts(ctx, stats.CustomersByState, query, topStates); err != nil {
		return stats, errors.Wrap(err, "customers by state")
	}

	return stats, nil
}

// groupCounts scans (key, count) rows into dst.
func (h *StatsHandler) groupCounts(ctx context.Context, dst map[string]int, query string, args ...any) error {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key *string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		if key != nil {
			dst[*key] = n
		}
	}
	return rows.Err()
}
