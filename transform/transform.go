// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transform

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"

	"github.com/anirudhqwerty/kastack-project/extract"
	"github.com/anirudhqwerty/kastack-project/models"
)

// Delivered-before-purchase policies
const (
	PolicyFlag    = "flag"
	PolicyExclude = "exclude"
)

// Exclusion reasons. Every source row that does not reach the master table is
// counted under exactly one of these.
const (
	ReasonCustomerMissingKey = "customers_missing_key"
	ReasonCustomerDuplicate  = "customers_duplicate"
	ReasonCustomerNoOrders   = "customers_without_orders"

	ReasonOrderMissingKey      = "orders_missing_key"
	ReasonOrderDuplicate       = "orders_duplicate"
	ReasonOrderOrphanCustomer  = "orders_orphan_customer"
	ReasonOrderDeliveryAnomaly = "orders_delivery_anomaly"
	ReasonOrderNoItems         = "orders_without_items"
	ReasonOrderNoPayments      = "orders_without_payments"

	ReasonItemMissingKey    = "order_items_missing_key"
	ReasonItemDuplicate     = "order_items_duplicate"
	ReasonItemOrphanOrder   = "order_items_orphan_order"
	ReasonItemOrderExcluded = "order_items_order_excluded"

	ReasonPaymentMissingKey    = "payments_missing_key"
	ReasonPaymentDuplicate     = "payments_duplicate"
	ReasonPaymentOrphanOrder   = "payments_orphan_order"
	ReasonPaymentOrderExcluded = "payments_order_excluded"
)

// Options controls validation behavior.
type Options struct {
	// DeliveryPolicy is PolicyFlag (default) or PolicyExclude.
	DeliveryPolicy string
}

// Stats records everything the transform absorbed instead of failing.
type Stats struct {
	Excluded    map[string]int
	ParseErrors map[string]int
	// Anomalies counts joined orders delivered before they were purchased.
	Anomalies int
}

func newStats() Stats {
	return Stats{Excluded: map[string]int{}, ParseErrors: map[string]int{}}
}

func (s *Stats) exclude(reason string, n int) {
	if n > 0 {
		s.Excluded[reason] += n
	}
}

func (s *Stats) parseError(field string) {
	s.ParseErrors[field]++
}

// ExcludedTotal is the number of source rows that did not reach master.
func (s Stats) ExcludedTotal() int {
	total := 0
	for _, n := range s.Excluded {
		total += n
	}
	return total
}

// ParseErrorTotal is the number of malformed cells.
func (s Stats) ParseErrorTotal() int {
	total := 0
	for _, n := range s.ParseErrors {
		total += n
	}
	return total
}

// Result holds every table the loader writes.
type Result struct {
	// Typed source rows with usable, unique keys
	Customers []models.Customer
	Orders    []models.Order
	Items     []models.OrderItem
	Payments  []models.Payment

	Master   []models.MasterRecord
	Sales    []models.SalesSummary
	Delivery []models.DeliverySummary
	Products []models.ProductSummary
	States   []models.StateSummary

	Stats Stats
}

// Transform parses, joins and aggregates the extracted sources. It performs
// no I/O and gives identical output for identical input.
func Transform(src *extract.Sources, opts Options) (*Result, error) {
	if src == nil || src.Customers == nil || src.Orders == nil || src.OrderItems == nil || src.Payments == nil {
		return nil, errors.New("transform: all four sources are required")
	}
	switch opts.DeliveryPolicy {
	case "":
		opts.DeliveryPolicy = PolicyFlag
	case PolicyFlag, PolicyExclude:
	default:
		return nil, errors.Newf("transform: unknown delivery policy %q", opts.DeliveryPolicy)
	}

	slog.Info("starting data transformation", "delivery_policy", opts.DeliveryPolicy)

	stats := newStats()
	in := parseSources(src, &stats)
	j := join(in, opts, &stats)

	res := &Result{
		Customers: in.customers,
		Orders:    in.orders,
		Items:     in.items,
		Payments:  in.payments,
		Master:    j.master,
		Sales:     salesSummary(j),
		Delivery:  deliverySummary(j),
		Products:  productSummary(j),
		States:    stateSummary(j),
		Stats:     stats,
	}

	slog.Info("transformation complete",
		"master_rows", len(res.Master),
		"master_rows_human", humanize.Comma(int64(len(res.Master))),
		"excluded", stats.ExcludedTotal(),
		"parse_errors", stats.ParseErrorTotal(),
		"delivery_anomalies", stats.Anomalies,
	)
	if stats.ExcludedTotal() > 0 {
		slog.Warn("rows excluded during join", "by_reason", stats.Excluded)
	}

	return res, nil
}

// parsed holds typed, deduplicated source rows sorted by key.
type parsed struct {
	customers []models.Customer
	orders    []models.Order
	items     []models.OrderItem
	payments  []models.Payment

	// badDelivery holds orders whose delivered date could not be parsed.
	badDelivery map[string]bool
}

func parseSources(src *extract.Sources, stats *Stats) parsed {
	p := parsed{badDelivery: map[string]bool{}}

	// Customers
	seenCustomers := map[string]bool{}
	for _, row := range src.Customers.Rows {
		r := rowReader{table: src.Customers, row: row, stats: stats}
		c := models.Customer{
			ID:            r.str("customer_id"),
			UniqueID:      r.str("customer_unique_id"),
			ZipCodePrefix: r.str("customer_zip_code_prefix"),
			City:          r.str("customer_city"),
			State:         strings.ToUpper(r.str("customer_state")),
		}
		if c.ID == "" {
			stats.exclude(ReasonCustomerMissingKey, 1)
			continue
		}
		if seenCustomers[c.ID] {
			stats.exclude(ReasonCustomerDuplicate, 1)
			continue
		}
		seenCustomers[c.ID] = true
		p.customers = append(p.customers, c)
	}
	sort.Slice(p.customers, func(i, k int) bool { return p.customers[i].ID < p.customers[k].ID })

	// Orders
	seenOrders := map[string]bool{}
	for _, row := range src.Orders.Rows {
		r := rowReader{table: src.Orders, row: row, stats: stats}
		o := models.Order{
			ID:         r.str("order_id"),
			CustomerID: r.str("customer_id"),
			Status:     r.str("order_status"),
		}
		o.PurchasedAt, _ = r.timestamp("order_purchase_timestamp")
		delivered, deliveredOK := r.timestamp("order_delivered_customer_date")
		o.DeliveredAt = delivered
		o.EstimatedAt, _ = r.timestamp("order_estimated_delivery_date")
		if o.ID == "" || o.CustomerID == "" {
			stats.exclude(ReasonOrderMissingKey, 1)
			continue
		}
		if seenOrders[o.ID] {
			stats.exclude(ReasonOrderDuplicate, 1)
			continue
		}
		seenOrders[o.ID] = true
		if !deliveredOK {
			p.badDelivery[o.ID] = true
		}
		p.orders = append(p.orders, o)
	}
	sort.Slice(p.orders, func(i, k int) bool { return p.orders[i].ID < p.orders[k].ID })

	// Order items
	type itemKey struct {
		order string
		seq   int
	}
	seenItems := map[itemKey]bool{}
	for _, row := range src.OrderItems.Rows {
		r := rowReader{table: src.OrderItems, row: row, stats: stats}
		seq, ok := r.integer("order_item_id")
		it := models.OrderItem{
			OrderID:   r.str("order_id"),
			Seq:       seq,
			ProductID: r.str("product_id"),
			SellerID:  r.str("seller_id"),
			Price:     r.money("price"),
			Freight:   r.money("freight_value"),
		}
		if it.OrderID == "" || !ok || it.ProductID == "" {
			stats.exclude(ReasonItemMissingKey, 1)
			continue
		}
		key := itemKey{it.OrderID, it.Seq}
		if seenItems[key] {
			stats.exclude(ReasonItemDuplicate, 1)
			continue
		}
		seenItems[key] = true
		p.items = append(p.items, it)
	}
	sort.Slice(p.items, func(i, k int) bool {
		if p.items[i].OrderID != p.items[k].OrderID {
			return p.items[i].OrderID < p.items[k].OrderID
		}
		return p.items[i].Seq < p.items[k].Seq
	})

	// Payments. A row without a usable payment_sequential takes the lowest
	// sequence number its order does not use explicitly anywhere in the file.
	type paymentRow struct {
		pay    models.Payment
		hasSeq bool
	}
	var rows []paymentRow
	used := map[itemKey]bool{}
	for _, row := range src.Payments.Rows {
		r := rowReader{table: src.Payments, row: row, stats: stats}
		pay := models.Payment{
			OrderID: r.str("order_id"),
			Type:    r.str("payment_type"),
			Value:   r.money("payment_value"),
		}
		if n, ok := r.integer("payment_installments"); ok {
			pay.Installments = &n
		}
		if pay.OrderID == "" {
			stats.exclude(ReasonPaymentMissingKey, 1)
			continue
		}
		seq, ok := r.optionalInt("payment_sequential")
		if ok {
			pay.Seq = seq
			used[itemKey{pay.OrderID, seq}] = true
		}
		rows = append(rows, paymentRow{pay: pay, hasSeq: ok})
	}

	seenPayments := map[itemKey]bool{}
	next := map[string]int{}
	for _, row := range rows {
		pay := row.pay
		if !row.hasSeq {
			seq := next[pay.OrderID]
			for {
				seq++
				if !used[itemKey{pay.OrderID, seq}] {
					break
				}
			}
			next[pay.OrderID] = seq
			pay.Seq = seq
		}
		key := itemKey{pay.OrderID, pay.Seq}
		if seenPayments[key] {
			stats.exclude(ReasonPaymentDuplicate, 1)
			continue
		}
		seenPayments[key] = true
		p.payments = append(p.payments, pay)
	}
	sort.Slice(p.payments, func(i, k int) bool {
		if p.payments[i].OrderID != p.payments[k].OrderID {
			return p.payments[i].OrderID < p.payments[k].OrderID
		}
		return p.payments[i].Seq < p.payments[k].Seq
	})

	return p
}
