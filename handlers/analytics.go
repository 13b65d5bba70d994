// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/models"
)

// AnalyticsHandler serves the master table and the four summaries.
type AnalyticsHandler struct {
	db *db.DB
}

func NewAnalyticsHandler(d *db.DB) *AnalyticsHandler {
	return &AnalyticsHandler{db: d}
}

// columnsOf returns the live column list of a derived table.
func columnsOf(table string) []string {
	t, _ := db.Lookup(table)
	return t.ColumnNames()
}

// ListMaster handles GET /master
func (h *AnalyticsHandler) ListMaster(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := listQuery{table: db.TableMaster, columns: columnsOf(db.TableMaster), orderBy: "row_num"}
	q.filter.eq("customer_id", params.Get("customer_id"))
	q.filter.eq("customer_state", strings.ToUpper(params.Get("state")))
	q.filter.eq("order_id", params.Get("order_id"))
	q.filter.eq("product_id", params.Get("product_id"))

	serveList(w, r, h.db, q, scanMaster)
}

// SalesSummary handles GET /summaries/sales
func (h *AnalyticsHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := listQuery{
		table:   db.TableSalesSummary,
		columns: columnsOf(db.TableSalesSummary),
		orderBy: "total_spent DESC, customer_id",
	}
	q.filter.eq("customer_id", params.Get("customer_id"))
	q.filter.eq("customer_state", strings.ToUpper(params.Get("state")))

	serveList(w, r, h.db, q, scanSales)
}

// DeliverySummary handles GET /summaries/delivery
func (h *AnalyticsHandler) DeliverySummary(w http.ResponseWriter, r *http.Request) {
	q := listQuery{
		table:   db.TableDeliverySummary,
		columns: columnsOf(db.TableDeliverySummary),
		orderBy: "customer_state",
	}
	q.filter.eq("customer_state", strings.ToUpper(r.URL.Query().Get("state")))

	serveList(w, r, h.db, q, scanDelivery)
}

// ProductSummary handles GET /summaries/products
func (h *AnalyticsHandler) ProductSummary(w http.ResponseWriter, r *http.Request) {
	q := listQuery{
		table:   db.TableProductSummary,
		columns: columnsOf(db.TableProductSummary),
		orderBy: "total_revenue DESC, product_id",
	}
	q.filter.eq("product_id", r.URL.Query().Get("product_id"))

	serveList(w, r, h.db, q, scanProduct)
}

// StateSummary handles GET /summaries/states
func (h *AnalyticsHandler) StateSummary(w http.ResponseWriter, r *http.Request) {
	q := listQuery{
		table:   db.TableStateSummary,
		columns: columnsOf(db.TableStateSummary),
		orderBy: "customer_state",
	}
	q.filter.eq("customer_state", strings.ToUpper(r.URL.Query().Get("state")))

	serveList(w, r, h.db, q, scanState)
}

func scanMaster(s scanner) (models.MasterRecord, error) {
	var m models.MasterRecord
	err := s.Scan(
		&m.RowNum, &m.OrderID, &m.ItemSeq, &m.PaymentSeq,
		&m.CustomerID, &m.CustomerUnique, &m.City, &m.State, &m.ZipCodePrefix,
		&m.OrderStatus, &m.PurchasedAt, &m.DeliveredAt, &m.EstimatedAt,
		&m.DeliveryDays, &m.DeliveryAnomaly,
		&m.ProductID, &m.SellerID, &m.Price, &m.Freight,
		&m.PaymentType, &m.Installments, &m.PaymentValue,
	)
	return m, err
}

func scanSales(s scanner) (models.SalesSummary, error) {
	var v models.SalesSummary
	err := s.Scan(
		&v.CustomerID, &v.State, &v.City, &v.TotalSpent, &v.OrderCount, &v.ItemCount,
		&v.AvgOrderValue, &v.AvgPrice, &v.AvgFreight,
	)
	return v, err
}

func scanDelivery(s scanner) (models.DeliverySummary, error) {
	var v models.DeliverySummary
	err := s.Scan(
		&v.State, &v.TotalOrders, &v.DeliveredOrders, &v.SuccessRate,
		&v.AvgDays, &v.MedianDays, &v.MinDays, &v.MaxDays, &v.OnTimeRate, &v.Anomalies,
	)
	return v, err
}

func scanProduct(s scanner) (models.ProductSummary, error) {
	var v models.ProductSummary
	err := s.Scan(&v.ProductID, &v.Revenue, &v.OrderFrequency, &v.ItemsSold, &v.AvgPrice, &v.TotalFreight, &v.AvgFreight)
	return v, err
}

func scanState(s scanner) (models.StateSummary, error) {
	var v models.StateSummary
	err := s.Scan(&v.State, &v.TotalCustomers, &v.TotalOrders, &v.TotalRevenue, &v.AvgOrderValue, &v.TotalItems)
	return v, err
}
