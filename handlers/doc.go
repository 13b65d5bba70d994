// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the read-only HTTP handlers for the Olist API.

# Handler Types

Each handler is a struct holding the database wrapper:

  - CustomerHandler: customer listing, lookup by state or id, customer orders
  - OrderHandler: orders, order detail, order items and payments
  - AnalyticsHandler: the master table and the four summary tables
  - StatsHandler: dataset totals
  - HealthHandler: banner, health check and pipeline run history

Handlers are created via constructor functions:

	customerHandler := handlers.NewCustomerHandler(d)
	healthHandler := handlers.NewHealthHandler(d, sched.History())

# Listing

List endpoints accept limit (default 100, clamped to 1000) and offset
(default 0) and return:

	{"total": 3, "limit": 100, "offset": 0, "data": [...]}

total counts every matching row, not just the page. Filters are exact
matches; state, status and payment type filters ignore case.

	GET /customers?state=SP
	GET /orders?status=delivered&customer_id=c1
	GET /master?product_id=p1&limit=50&offset=100

# Errors

	400  limit or offset is not a valid number
	404  unknown customer or order
	500  any database failure ("Database error")
	503  /health when the database does not answer a ping

Reads run against whichever copy of a table is live. A load swaps tables
atomically, so a request never sees a partly loaded table.
*/
package handlers
