// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/middleware"
	"github.com/anirudhqwerty/kastack-project/models"
)

var customerColumns = []string{
	"customer_id", "customer_unique_id", "customer_zip_code_prefix", "customer_city", "customer_state",
}

type CustomerHandler struct {
	db *db.DB
}

func NewCustomerHandler(d *db.DB) *CustomerHandler {
	return &CustomerHandler{db: d}
}

// ListCustomers handles GET /customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q := listQuery{table: db.TableCustomers, columns: customerColumns, orderBy: "customer_id"}
	q.filter.eqFold("customer_state", r.URL.Query().Get("state"))

	serveList(w, r, h.db, q, scanCustomer)
}

// CustomersByState handles GET /customers/by_state/{state}
func (h *CustomerHandler) CustomersByState(w http.ResponseWriter, r *http.Request) {
	state := strings.ToUpper(chi.URLParam(r, "state"))

	page, err := middleware.ParsePagination(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	q := listQuery{table: db.TableCustomers, columns: customerColumns, orderBy: "customer_id"}
	q.filter.eqFold("customer_state", state)

	customers := []models.Customer{}
	total, err := q.run(r.Context(), h.db, page, func(rows *sql.Rows) error {
		c, err := scanCustomer(rows)
		if err != nil {
			return err
		}
		customers = append(customers, c)
		return nil
	})
	if err != nil {
		slog.Error("failed to query customers by state", "state", state, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := models.CustomersByStateResponse{
		State: state,
		Count: total,
		Data:  customers,
	}
	if total == 0 {
		resp.Message = "No customers found in state: " + state
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetCustomer handles GET /customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	query := h.db.Rebind("SELECT " + strings.Join(customerColumns, ", ") + " FROM customers WHERE customer_id = ?")
	c, err := scanCustomer(h.db.QueryRowContext(r.Context(), query, id))
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Customer not found")
		return
	}
	if err != nil {
		slog.Error("failed to query customer", "customer_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, c)
}

// CustomerOrders handles GET /customers/{id}/orders and its
// /customer/{id}/orders alias
func (h *CustomerHandler) CustomerOrders(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	var known bool
	err := h.db.QueryRowContext(ctx,
		h.db.Rebind("SELECT EXISTS (SELECT 1 FROM customers WHERE customer_id = ?)"), id,
	).Scan(&known)
	if err != nil {
		slog.Error("failed to check customer", "customer_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !known {
		middleware.ErrorResponse(w, http.StatusNotFound, "Customer not found")
		return
	}

	orders, err := queryAll(ctx, h.db,
		"SELECT "+strings.Join(orderColumns, ", ")+" FROM orders WHERE customer_id = ? ORDER BY order_purchase_timestamp, order_id",
		scanOrder, id)
	if err != nil {
		slog.Error("failed to query customer orders", "customer_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CustomerOrdersResponse{
		CustomerID: id,
		OrderCount: len(orders),
		Data:       orders,
	})
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s scanner) (models.Customer, error) {
	var c models.Customer
	err := s.Scan(&c.ID, &c.UniqueID, &c.ZipCodePrefix, &c.City, &c.State)
	return c, err
}
