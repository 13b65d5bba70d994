// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package loader

import (
	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/transform"
)

// tableRows returns the insert arguments for every table, in the column order
// of its db.Table definition.
func tableRows(res *transform.Result) map[string][][]any {
	out := make(map[string][][]any, len(db.Tables))

	customers := make([][]any, 0, len(res.Customers))
	for _, c := range res.Customers {
		customers = append(customers, []any{c.ID, c.UniqueID, c.ZipCodePrefix, c.City, c.State})
	}
	out[db.TableCustomers] = customers

	orders := make([][]any, 0, len(res.Orders))
	for _, o := range res.Orders {
		orders = append(orders, []any{o.ID, o.CustomerID, o.Status, o.PurchasedAt, o.DeliveredAt, o.EstimatedAt})
	}
	out[db.TableOrders] = orders

	items := make([][]any, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, []any{it.OrderID, it.Seq, it.ProductID, it.SellerID, it.Price, it.Freight})
	}
	out[db.TableOrderItems] = items

	payments := make([][]any, 0, len(res.Payments))
	for _, p := range res.Payments {
		payments = append(payments, []any{p.OrderID, p.Seq, p.Type, p.Installments, p.Value})
	}
	out[db.TablePayments] = payments

	master := make([][]any, 0, len(res.Master))
	for _, m := range res.Master {
		master = append(master, []any{
			m.RowNum, m.OrderID, m.ItemSeq, m.PaymentSeq,
			m.CustomerID, m.CustomerUnique, m.City, m.State, m.ZipCodePrefix,
			m.OrderStatus, m.PurchasedAt, m.DeliveredAt, m.EstimatedAt,
			m.DeliveryDays, m.DeliveryAnomaly,
			m.ProductID, m.SellerID, m.Price, m.Freight,
			m.PaymentType, m.Installments, m.PaymentValue,
		})
	}
	out[db.TableMaster] = master

	sales := make([][]any, 0, len(res.Sales))
	for _, s := range res.Sales {
		sales = append(sales, []any{
			s.CustomerID, s.State, s.City, s.TotalSpent, s.OrderCount, s.ItemCount,
			s.AvgOrderValue, s.AvgPrice, s.AvgFreight,
		})
	}
	out[db.TableSalesSummary] = sales

	delivery := make([][]any, 0, len(res.Delivery))
	for _, d := range res.Delivery {
		delivery = append(delivery, []any{
			d.State, d.TotalOrders, d.DeliveredOrders, d.SuccessRate,
			d.AvgDays, d.MedianDays, d.MinDays, d.MaxDays, d.OnTimeRate, d.Anomalies,
		})
	}
	out[db.TableDeliverySummary] = delivery

	products := make([][]any, 0, len(res.Products))
	for _, p := range res.Products {
		products = append(products, []any{
			p.ProductID, p.Revenue, p.OrderFrequency, p.ItemsSold, p.AvgPrice, p.TotalFreight, p.AvgFreight,
		})
	}
	out[db.TableProductSummary] = products

	states := make([][]any, 0, len(res.States))
	for _, s := range res.States {
		states = append(states, []any{
			s.State, s.TotalCustomers, s.TotalOrders, s.TotalRevenue, s.AvgOrderValue, s.TotalItems,
		})
	}
	out[db.TableStateSummary] = states

	return out
}
