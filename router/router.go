// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/handlers"
	"github.com/anirudhqwerty/kastack-project/metrics"
	"github.com/anirudhqwerty/kastack-project/middleware"
)

// NewRouter builds the read-only API. history and m may be nil.
func NewRouter(d *db.DB, history handlers.RunHistory, m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.WithLogging(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(d, history)
	customerHandler := handlers.NewCustomerHandler(d)
	orderHandler := handlers.NewOrderHandler(d)
	analyticsHandler := handlers.NewAnalyticsHandler(d)
	statsHandler := handlers.NewStatsHandler(d)

	r.Get("/", healthHandler.Index)
	r.Get("/health", healthHandler.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// Source tables
	r.Get("/customers", customerHandler.ListCustomers)
	r.Get("/customers/by_state/{state}", customerHandler.CustomersByState)
	r.Get("/customers/{id}", customerHandler.GetCustomer)
	r.Get("/customers/{id}/orders", customerHandler.CustomerOrders)
	r.Get("/customer/{id}/orders", customerHandler.CustomerOrders)
	r.Get("/orders", orderHandler.ListOrders)
	r.Get("/orders/{id}", orderHandler.GetOrder)
	r.Get("/order_items", orderHandler.ListOrderItems)
	r.Get("/payments", orderHandler.ListPayments)

	// Derived tables
	r.Get("/master", analyticsHandler.ListMaster)
	r.Route("/summaries", func(r chi.Router) {
		r.Get("/sales", analyticsHandler.SalesSummary)
		r.Get("/delivery", analyticsHandler.DeliverySummary)
		r.Get("/products", analyticsHandler.ProductSummary)
		r.Get("/states", analyticsHandler.StateSummary)
	})
	r.Get("/stats/summary", statsHandler.Summary)

	// Pipeline
	r.Get("/pipeline/runs", healthHandler.Runs)

	return r
}
