// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/middleware"
	"github.com/anirudhqwerty/kastack-project/models"
)

// APIVersion is reported by GET /.
const APIVersion = "2.0"

const pingTimeout = 2 * time.Second

// RunHistory is the read side of the scheduler's run history.
type RunHistory interface {
	Recent(limit int) []models.RunSummary
	Last() (models.RunSummary, bool)
}

type HealthHandler struct {
	db      *db.DB
	history RunHistory
}

// NewHealthHandler creates a health handler. history may be nil when no
// scheduler is running.
func NewHealthHandler(d *db.DB, history RunHistory) *HealthHandler {
	return &HealthHandler{db: d, history: history}
}

// Index handles GET /
func (h *HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, map[string]any{
		"message": "Welcome to the Olist E-commerce API!",
		"version": APIVersion,
		"available_endpoints": map[string]string{
			"health":             "/health",
			"metrics":            "/metrics",
			"customers":          "/customers",
			"customers_by_state": "/customers/by_state/{state}",
			"customer":           "/customers/{customer_id}",
			"customer_orders":    "/customers/{customer_id}/orders",
			"orders":             "/orders",
			"order":              "/orders/{order_id}",
			"order_items":        "/order_items",
			"payments":           "/payments",
			"master":             "/master",
			"sales_summary":      "/summaries/sales",
			"delivery_summary":   "/summaries/delivery",
			"product_summary":    "/summaries/products",
			"state_summary":      "/summaries/states",
			"stats":              "/stats/summary",
			"pipeline_runs":      "/pipeline/runs",
		},
	})
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	resp := models.HealthResponse{Status: "healthy", Database: "connected"}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		slog.Warn("health check ping failed", "error", err)
		resp.Status = "unhealthy"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	} else {
		var n int
		// A missing master table means no run has loaded yet.
		if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+db.TableMaster).Scan(&n); err == nil {
			resp.DataLoaded = n > 0
		}
	}

	if h.history != nil {
		if last, ok := h.history.Last(); ok {
			resp.LastRun = &last
		}
	}

	middleware.JSONResponse(w, status, resp)
}

// Runs handles GET /pipeline/runs
func (h *HealthHandler) Runs(w http.ResponseWriter, r *http.Request) {
	page, err := middleware.ParsePagination(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	runs := []models.RunSummary{}
	if h.history != nil {
		runs = append(runs, h.history.Recent(page.Limit)...)
	}

	middleware.JSONResponse(w, http.StatusOK, models.RunsResponse{
		Count: len(runs),
		Data:  runs,
	})
}
