// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package transform turns extracted source tables into the master table and the
four summary tables.

# Usage

	res, err := transform.Transform(sources, transform.Options{
		DeliveryPolicy: transform.PolicyFlag,
	})

Transform does no I/O. Identical sources always produce identical results:
every output is sorted by key and master row numbers run 1..N in
(order_id, item seq, payment seq) order.

# Parsing

Cells are trimmed. Money columns are parsed with shopspring/decimal,
timestamps accept "2006-01-02 15:04:05", RFC3339 and "2006-01-02" in UTC.
A malformed cell becomes NULL and is counted in Stats.ParseErrors under
"<source>.<column>". The row is kept. An order whose delivered date is
malformed is left out of the delivery summary, since whether it was
delivered is unknown.

Rows with an empty key or a duplicate key are dropped (first occurrence wins)
and counted in Stats.Excluded. A payment without payment_sequential gets the
lowest number its order does not use explicitly.

# Join

The master table is the inner join

	orders ⋈ customers ⋈ order_items ⋈ payments

An order with n items and m payments yields n*m master rows. Rows that find no
partner are counted by reason:

  - orders_orphan_customer: order references an unknown customer
  - orders_without_items, orders_without_payments
  - order_items_orphan_order, payments_orphan_order
  - order_items_order_excluded, payments_order_excluded: their order was dropped
  - customers_without_orders

# Delivery Anomalies

An order delivered before it was purchased has a negative duration. With
PolicyFlag the order is kept and flagged. With PolicyExclude it is dropped
under orders_delivery_anomaly. Both policies count it in Stats.Anomalies.

# Aggregates

Summaries count each joined item and payment once, never once per cross
product row, so

	sum(sales_summary.total_spent) == sum of distinct joined payment values

Averages are rounded to cents. An average over zero values is nil.
*/
package transform
