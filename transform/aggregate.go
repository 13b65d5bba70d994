// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transform

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anirudhqwerty/kastack-project/models"
)

// Aggregates count every joined item and payment once, not once per master
// row, so sums are conserved across the cross product.

// decimalAvg accumulates a mean over the values that parsed.
type decimalAvg struct {
	sum decimal.Decimal
	n   int64
}

func (a *decimalAvg) add(v *decimal.Decimal) {
	if v == nil {
		return
	}
	a.sum = a.sum.Add(*v)
	a.n++
}

func (a decimalAvg) mean() *decimal.Decimal {
	return divide(a.sum, a.n)
}

// divide returns sum / n rounded to cents, or nil when n is zero.
func divide(sum decimal.Decimal, n int64) *decimal.Decimal {
	if n == 0 {
		return nil
	}
	d := sum.DivRound(decimal.NewFromInt(n), 2)
	return &d
}

func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	r := float64(num) / float64(den)
	return &r
}

func salesSummary(j joined) []models.SalesSummary {
	type acc struct {
		row     models.SalesSummary
		spent   decimal.Decimal
		price   decimalAvg
		freight decimalAvg
	}
	byCustomer := map[string]*acc{}

	for _, jo := range j.orders {
		a, ok := byCustomer[jo.customer.ID]
		if !ok {
			a = &acc{row: models.SalesSummary{
				CustomerID: jo.customer.ID,
				State:      jo.customer.State,
				City:       jo.customer.City,
			}}
			byCustomer[jo.customer.ID] = a
		}
		a.row.OrderCount++
		for _, it := range jo.items {
			a.row.ItemCount++
			a.price.add(it.Price)
			a.freight.add(it.Freight)
		}
		for _, p := range jo.payments {
			if p.Value != nil {
				a.spent = a.spent.Add(*p.Value)
			}
		}
	}

	out := make([]models.SalesSummary, 0, len(byCustomer))
	for _, a := range byCustomer {
		a.row.TotalSpent = a.spent
		a.row.AvgOrderValue = divide(a.spent, int64(a.row.OrderCount))
		a.row.AvgPrice = a.price.mean()
		a.row.AvgFreight = a.freight.mean()
		out = append(out, a.row)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CustomerID < out[k].CustomerID })
	return out
}

func deliverySummary(j joined) []models.DeliverySummary {
	type acc struct {
		row       models.DeliverySummary
		days      []float64
		estimated int
		onTime    int
	}
	byState := map[string]*acc{}

	for _, jo := range j.orders {
		st := jo.customer.State
		a, ok := byState[st]
		if !ok {
			a = &acc{row: models.DeliverySummary{State: st}}
			byState[st] = a
		}
		if jo.deliveryUnknown {
			continue
		}
		a.row.TotalOrders++
		if jo.anomaly {
			a.row.Anomalies++
		}
		if jo.order.DeliveredAt == nil {
			continue
		}
		a.row.DeliveredOrders++
		if jo.days != nil {
			a.days = append(a.days, *jo.days)
		}
		if jo.order.EstimatedAt != nil {
			a.estimated++
			if !day(*jo.order.DeliveredAt).After(day(*jo.order.EstimatedAt)) {
				a.onTime++
			}
		}
	}

	out := make([]models.DeliverySummary, 0, len(byState))
	for _, a := range byState {
		a.row.SuccessRate = ratio(a.row.DeliveredOrders, a.row.TotalOrders)
		a.row.OnTimeRate = ratio(a.onTime, a.estimated)
		if len(a.days) > 0 {
			sort.Float64s(a.days)
			sum := 0.0
			for _, d := range a.days {
				sum += d
			}
			avg := round2(sum / float64(len(a.days)))
			median := round2(medianSorted(a.days))
			minDays, maxDays := a.days[0], a.days[len(a.days)-1]
			a.row.AvgDays = &avg
			a.row.MedianDays = &median
			a.row.MinDays = &minDays
			a.row.MaxDays = &maxDays
		}
		out = append(out, a.row)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].State < out[k].State })
	return out
}

func productSummary(j joined) []models.ProductSummary {
	type acc struct {
		row     models.ProductSummary
		orders  map[string]bool
		price   decimalAvg
		freight decimalAvg
	}
	byProduct := map[string]*acc{}

	for _, jo := range j.orders {
		for _, it := range jo.items {
			a, ok := byProduct[it.ProductID]
			if !ok {
				a = &acc{
					row:    models.ProductSummary{ProductID: it.ProductID},
					orders: map[string]bool{},
				}
				byProduct[it.ProductID] = a
			}
			a.orders[jo.order.ID] = true
			a.row.ItemsSold++
			a.price.add(it.Price)
			a.freight.add(it.Freight)
		}
	}

	out := make([]models.ProductSummary, 0, len(byProduct))
	for _, a := range byProduct {
		a.row.OrderFrequency = len(a.orders)
		a.row.Revenue = a.price.sum
		a.row.AvgPrice = a.price.mean()
		a.row.TotalFreight = a.freight.sum
		a.row.AvgFreight = a.freight.mean()
		out = append(out, a.row)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ProductID < out[k].ProductID })
	return out
}

func stateSummary(j joined) []models.StateSummary {
	type acc struct {
		row       models.StateSummary
		customers map[string]bool
		revenue   decimal.Decimal
	}
	byState := map[string]*acc{}

	for _, jo := range j.orders {
		st := jo.customer.State
		a, ok := byState[st]
		if !ok {
			a = &acc{row: models.StateSummary{State: st}, customers: map[string]bool{}}
			byState[st] = a
		}
		a.customers[jo.customer.ID] = true
		a.row.TotalOrders++
		a.row.TotalItems += len(jo.items)
		for _, p := range jo.payments {
			if p.Value != nil {
				a.revenue = a.revenue.Add(*p.Value)
			}
		}
	}

	out := make([]models.StateSummary, 0, len(byState))
	for _, a := range byState {
		a.row.TotalCustomers = len(a.customers)
		a.row.TotalRevenue = a.revenue
		a.row.AvgOrderValue = divide(a.revenue, int64(a.row.TotalOrders))
		out = append(out, a.row)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].State < out[k].State })
	return out
}

func medianSorted(xs []float64) float64 {
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

func day(t time.Time) time.Time {
	return t.Truncate(24 * time.Hour)
}
