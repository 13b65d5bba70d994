package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values seen in the Olist dataset
const (
	OrderStatusCreated     = "created"
	OrderStatusApproved    = "approved"
	OrderStatusInvoiced    = "invoiced"
	OrderStatusProcessing  = "processing"
	OrderStatusShipped     = "shipped"
	OrderStatusDelivered   = "delivered"
	OrderStatusUnavailable = "unavailable"
	OrderStatusCanceled    = "canceled"
)

// Run status constants
const (
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
	RunStatusSkipped = "skipped"
)

// Run trigger constants
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerStartup  = "startup"
)

// Source entities

type Customer struct {
	ID            string `json:"customer_id"`
	UniqueID      string `json:"customer_unique_id"`
	ZipCodePrefix string `json:"customer_zip_code_prefix"`
	City          string `json:"customer_city"`
	State         string `json:"customer_state"`
}

type Order struct {
	ID          string     `json:"order_id"`
	CustomerID  string     `json:"customer_id"`
	Status      string     `json:"order_status"`
	PurchasedAt *time.Time `json:"order_purchase_timestamp"`
	DeliveredAt *time.Time `json:"order_delivered_customer_date"`
	EstimatedAt *time.Time `json:"order_estimated_delivery_date"`
}

type OrderItem struct {
	OrderID   string           `json:"order_id"`
	Seq       int              `json:"order_item_id"`
	ProductID string           `json:"product_id"`
	SellerID  string           `json:"seller_id"`
	Price     *decimal.Decimal `json:"price"`
	Freight   *decimal.Decimal `json:"freight_value"`
}

type Payment struct {
	OrderID      string           `json:"order_id"`
	Seq          int              `json:"payment_sequential"`
	Type         string           `json:"payment_type"`
	Installments *int             `json:"payment_installments"`
	Value        *decimal.Decimal `json:"payment_value"`
}

// Derived tables

// MasterRecord is one (order, item, payment) combination that survived the
// inner join. DeliveryDays is nil when the order was not delivered.
type MasterRecord struct {
	RowNum          int64            `json:"row_num"`
	OrderID         string           `json:"order_id"`
	ItemSeq         int              `json:"order_item_id"`
	PaymentSeq      int              `json:"payment_sequential"`
	CustomerID      string           `json:"customer_id"`
	CustomerUnique  string           `json:"customer_unique_id"`
	City            string           `json:"customer_city"`
	State           string           `json:"customer_state"`
	ZipCodePrefix   string           `json:"customer_zip_code_prefix"`
	OrderStatus     string           `json:"order_status"`
	PurchasedAt     *time.Time       `json:"order_purchase_timestamp"`
	DeliveredAt     *time.Time       `json:"order_delivered_customer_date"`
	EstimatedAt     *time.Time       `json:"order_estimated_delivery_date"`
	DeliveryDays    *float64         `json:"delivery_days"`
	DeliveryAnomaly bool             `json:"delivery_anomaly"`
	ProductID       string           `json:"product_id"`
	SellerID        string           `json:"seller_id"`
	Price           *decimal.Decimal `json:"price"`
	Freight         *decimal.Decimal `json:"freight_value"`
	PaymentType     string           `json:"payment_type"`
	Installments    *int             `json:"payment_installments"`
	PaymentValue    *decimal.Decimal `json:"payment_value"`
}

type SalesSummary struct {
	CustomerID    string           `json:"customer_id"`
	State         string           `json:"customer_state"`
	City          string           `json:"customer_city"`
	TotalSpent    decimal.Decimal  `json:"total_spent"`
	OrderCount    int              `json:"total_orders"`
	ItemCount     int              `json:"total_items"`
	AvgOrderValue *decimal.Decimal `json:"avg_order_value"`
	AvgPrice      *decimal.Decimal `json:"avg_price"`
	AvgFreight    *decimal.Decimal `json:"avg_freight"`
}

type DeliverySummary struct {
	State           string   `json:"customer_state"`
	TotalOrders     int      `json:"total_orders"`
	DeliveredOrders int      `json:"delivered_orders"`
	SuccessRate     *float64 `json:"delivery_success_rate"`
	AvgDays         *float64 `json:"avg_delivery_days"`
	MedianDays      *float64 `json:"median_delivery_days"`
	MinDays         *float64 `json:"fastest_delivery_days"`
	MaxDays         *float64 `json:"slowest_delivery_days"`
	OnTimeRate      *float64 `json:"on_time_rate"`
	Anomalies       int      `json:"delivery_anomalies"`
}

type ProductSummary struct {
	ProductID      string           `json:"product_id"`
	Revenue        decimal.Decimal  `json:"total_revenue"`
	OrderFrequency int              `json:"total_orders"`
	ItemsSold      int              `json:"total_items_sold"`
	AvgPrice       *decimal.Decimal `json:"avg_price"`
	TotalFreight   decimal.Decimal  `json:"total_freight"`
	AvgFreight     *decimal.Decimal `json:"avg_freight"`
}

type StateSummary struct {
	State          string           `json:"customer_state"`
	TotalCustomers int              `json:"total_customers"`
	TotalOrders    int              `json:"total_orders"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	AvgOrderValue  *decimal.Decimal `json:"avg_order_value"`
	TotalItems     int              `json:"total_items"`
}

// Pipeline run types

// RunSummary is the structured result of one pipeline execution.
type RunSummary struct {
	RunID       string           `json:"run_id"`
	Trigger     string           `json:"trigger"`
	Status      string           `json:"status"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	DurationMS  int64            `json:"duration_ms"`
	Extracted   map[string]int   `json:"rows_extracted"`
	Joined      int              `json:"rows_joined"`
	Excluded    int              `json:"rows_excluded"`
	ExcludedBy  map[string]int   `json:"rows_excluded_by_reason,omitempty"`
	ParseErrors map[string]int   `json:"parse_errors,omitempty"`
	Anomalies   int              `json:"delivery_anomalies"`
	Loaded      map[string]int64 `json:"rows_loaded"`
}

// Succeeded reports whether the run completed and loaded its data.
func (s RunSummary) Succeeded() bool {
	return s.Status == RunStatusSuccess
}

// Response types

type ListResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Data   any `json:"data"`
}

type CustomersByStateResponse struct {
	Message string     `json:"message,omitempty"`
	State   string     `json:"state"`
	Count   int        `json:"count"`
	Data    []Customer `json:"data"`
}

type CustomerOrdersResponse struct {
	CustomerID string  `json:"customer_id"`
	OrderCount int     `json:"order_count"`
	Data       []Order `json:"data"`
}

type OrderDetail struct {
	Order    Order       `json:"order"`
	Customer *Customer   `json:"customer,omitempty"`
	Items    []OrderItem `json:"items"`
	Payments []Payment   `json:"payments"`
}

type StatsSummary struct {
	TotalCustomers   int              `json:"total_customers"`
	TotalOrders      int              `json:"total_orders"`
	TotalOrderItems  int              `json:"total_order_items"`
	TotalPayments    int              `json:"total_payments"`
	StatusBreakdown  map[string]int   `json:"order_status_breakdown"`
	TotalRevenue     decimal.Decimal  `json:"total_revenue"`
	AveragePayment   *decimal.Decimal `json:"average_payment"`
	CustomersByState map[string]int   `json:"customers_by_state"`
}

type HealthResponse struct {
	Status     string      `json:"status"`
	Database   string      `json:"database"`
	DataLoaded bool        `json:"data_loaded"`
	LastRun    *RunSummary `json:"last_run,omitempty"`
}

type RunsResponse struct {
	Count int          `json:"count"`
	Data  []RunSummary `json:"data"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
