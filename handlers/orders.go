// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
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

var (
	orderColumns = []string{
		"order_id", "customer_id", "order_status", "order_purchase_timestamp",
		"order_delivered_customer_date", "order_estimated_delivery_date",
	}
	itemColumns    = []string{"order_id", "order_item_id", "product_id", "seller_id", "price", "freight_value"}
	paymentColumns = []string{"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value"}
)

type OrderHandler struct {
	db *db.DB
}

func NewOrderHandler(d *db.DB) *OrderHandler {
	return &OrderHandler{db: d}
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := listQuery{table: db.TableOrders, columns: orderColumns, orderBy: "order_id"}
	q.filter.eqFold("order_status", params.Get("status"))
	q.filter.eq("customer_id", params.Get("customer_id"))

	serveList(w, r, h.db, q, scanOrder)
}

// GetOrder handles GET /orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	query := h.db.Rebind("SELECT " + strings.Join(orderColumns, ", ") + " FROM orders WHERE order_id = ?")
	order, err := scanOrder(h.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		slog.Error("failed to query order", "order_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	detail := models.OrderDetail{Order: order}

	query = h.db.Rebind("SELECT " + strings.Join(customerColumns, ", ") + " FROM customers WHERE customer_id = ?")
	c, err := scanCustomer(h.db.QueryRowContext(ctx, query, order.CustomerID))
	switch {
	case err == nil:
		detail.Customer = &c
	case !errors.Is(err, sql.ErrNoRows):
		slog.Error("failed to query order customer", "order_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if detail.Items, err = queryAll(ctx, h.db,
		"SELECT "+strings.Join(itemColumns, ", ")+" FROM order_items WHERE order_id = ? ORDER BY order_item_id",
		scanItem, id); err != nil {
		slog.Error("failed to query order items", "order_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if detail.Payments, err = queryAll(ctx, h.db,
		"SELECT "+strings.Join(paymentColumns, ", ")+" FROM payments WHERE order_id = ? ORDER BY payment_sequential",
		scanPayment, id); err != nil {
		slog.Error("failed to query order payments", "order_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// ListOrderItems handles GET /order_items
func (h *OrderHandler) ListOrderItems(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := listQuery{table: db.TableOrderItems, columns: itemColumns, orderBy: "order_id, order_item_id"}
	q.filter.eq("order_id", params.Get("order_id"))
	q.filter.eq("product_id", params.Get("product_id"))

	serveList(w, r, h.db, q, scanItem)
}

// ListPayments handles GET /payments
func (h *OrderHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := listQuery{table: db.TablePayments, columns: paymentColumns, orderBy: "order_id, payment_sequential"}
	q.filter.eqFold("payment_type", params.Get("payment_type"))
	q.filter.eq("order_id", params.Get("order_id"))

	serveList(w, r, h.db, q, scanPayment)
}

// queryAll runs an unpaginated query and scans every row.
func queryAll[T any](ctx context.Context, d *db.DB, query string, scan func(scanner) (T, error), args ...any) ([]T, error) {
	rows, err := d.QueryContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanOrder(s scanner) (models.Order, error) {
	var o models.Order
	err := s.Scan(&o.ID, &o.CustomerID, &o.Status, &o.PurchasedAt, &o.DeliveredAt, &o.EstimatedAt)
	return o, err
}

func scanItem(s scanner) (models.OrderItem, error) {
	var it models.OrderItem
	err := s.Scan(&it.OrderID, &it.Seq, &it.ProductID, &it.SellerID, &it.Price, &it.Freight)
	return it, err
}

func scanPayment(s scanner) (models.Payment, error) {
	var p models.Payment
	err := s.Scan(&p.OrderID, &p.Seq, &p.Type, &p.Installments, &p.Value)
	return p, err
}
