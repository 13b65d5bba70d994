// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transform

import (
	"math"
	"time"

	"github.com/anirudhqwerty/kastack-project/models"
)

// joinedOrder is an order that reached the master table together with the
// items and payments it was joined with.
type joinedOrder struct {
	order    models.Order
	customer models.Customer
	items    []models.OrderItem
	payments []models.Payment
	days     *float64
	anomaly  bool

	// deliveryUnknown is set when the delivered date was malformed.
	deliveryUnknown bool
}

type joined struct {
	orders []joinedOrder
	master []models.MasterRecord
}

// join performs Order⋈Customer⋈OrderItem⋈Payment with inner-join semantics.
// Inputs are sorted by key, so the output order is deterministic.
func join(in parsed, opts Options, stats *Stats) joined {
	customers := make(map[string]models.Customer, len(in.customers))
	for _, c := range in.customers {
		customers[c.ID] = c
	}
	orderIDs := make(map[string]bool, len(in.orders))
	for _, o := range in.orders {
		orderIDs[o.ID] = true
	}

	itemsByOrder := map[string][]models.OrderItem{}
	for _, it := range in.items {
		if !orderIDs[it.OrderID] {
			stats.exclude(ReasonItemOrphanOrder, 1)
			continue
		}
		itemsByOrder[it.OrderID] = append(itemsByOrder[it.OrderID], it)
	}
	paymentsByOrder := map[string][]models.Payment{}
	for _, p := range in.payments {
		if !orderIDs[p.OrderID] {
			stats.exclude(ReasonPaymentOrphanOrder, 1)
			continue
		}
		paymentsByOrder[p.OrderID] = append(paymentsByOrder[p.OrderID], p)
	}

	var out joined
	customerJoined := map[string]bool{}
	var rowNum int64

	for _, o := range in.orders {
		items := itemsByOrder[o.ID]
		payments := paymentsByOrder[o.ID]

		dropOrder := func(reason string) {
			stats.exclude(reason, 1)
			stats.exclude(ReasonItemOrderExcluded, len(items))
			stats.exclude(ReasonPaymentOrderExcluded, len(payments))
		}

		c, ok := customers[o.CustomerID]
		if !ok {
			dropOrder(ReasonOrderOrphanCustomer)
			continue
		}

		days, anomaly := deliveryDays(o.PurchasedAt, o.DeliveredAt)
		if anomaly {
			stats.Anomalies++
			if opts.DeliveryPolicy == PolicyExclude {
				dropOrder(ReasonOrderDeliveryAnomaly)
				continue
			}
		}

		if len(items) == 0 {
			dropOrder(ReasonOrderNoItems)
			continue
		}
		if len(payments) == 0 {
			dropOrder(ReasonOrderNoPayments)
			continue
		}

		customerJoined[c.ID] = true
		out.orders = append(out.orders, joinedOrder{
			order:    o,
			customer: c,
			items:    items,
			payments: payments,
			days:     days,
			anomaly:  anomaly,

			deliveryUnknown: in.badDelivery[o.ID],
		})

		for _, it := range items {
			for _, p := range payments {
				rowNum++
				out.master = append(out.master, models.MasterRecord{
					RowNum:          rowNum,
					OrderID:         o.ID,
					ItemSeq:         it.Seq,
					PaymentSeq:      p.Seq,
					CustomerID:      c.ID,
					CustomerUnique:  c.UniqueID,
					City:            c.City,
					State:           c.State,
					ZipCodePrefix:   c.ZipCodePrefix,
					OrderStatus:     o.Status,
					PurchasedAt:     o.PurchasedAt,
					DeliveredAt:     o.DeliveredAt,
					EstimatedAt:     o.EstimatedAt,
					DeliveryDays:    days,
					DeliveryAnomaly: anomaly,
					ProductID:       it.ProductID,
					SellerID:        it.SellerID,
					Price:           it.Price,
					Freight:         it.Freight,
					PaymentType:     p.Type,
					Installments:    p.Installments,
					PaymentValue:    p.Value,
				})
			}
		}
	}

	for _, c := range in.customers {
		if !customerJoined[c.ID] {
			stats.exclude(ReasonCustomerNoOrders, 1)
		}
	}

	return out
}

// deliveryDays returns delivered − purchased in days (2 decimals), or nil when
// either timestamp is missing. anomaly is true when delivery precedes purchase.
func deliveryDays(purchased, delivered *time.Time) (*float64, bool) {
	if purchased == nil || delivered == nil {
		return nil, false
	}
	d := delivered.Sub(*purchased)
	days := round2(d.Hours() / 24)
	return &days, d < 0
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
