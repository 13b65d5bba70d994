// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Olist API.

# Route Registration

NewRouter creates a chi router with every endpoint:

	r := router.NewRouter(d, sched.History(), m)

Every route is GET only; other methods get 405 from chi.

# Middleware

Applied to every route, in order:

  - chi Recoverer: a panicking handler becomes a 500
  - chi RealIP: X-Forwarded-For / X-Real-IP become the remote address
  - middleware.WithLogging: request log line and HTTP metrics
  - go-chi/cors: any origin, GET and OPTIONS

# Endpoints

Service:

	GET /                - Banner with endpoint index
	GET /health          - Database ping, data loaded, last run
	GET /metrics         - Prometheus exposition (when metrics are enabled)
	GET /pipeline/runs   - Recent run summaries, newest first

Source tables:

	GET /customers                   - ?state=
	GET /customers/by_state/{state}  - Customers in one state
	GET /customers/{id}              - One customer
	GET /customers/{id}/orders       - Orders of a customer
	GET /customer/{id}/orders        - Alias of the above
	GET /orders                      - ?status= &customer_id=
	GET /orders/{id}                 - Order with customer, items and payments
	GET /order_items                 - ?order_id= &product_id=
	GET /payments                    - ?payment_type= &order_id=

Derived tables:

	GET /master              - ?customer_id= &state= &order_id= &product_id=
	GET /summaries/sales     - ?customer_id= &state=
	GET /summaries/delivery  - ?state=
	GET /summaries/products  - ?product_id=
	GET /summaries/states    - ?state=
	GET /stats/summary       - Totals, status breakdown, revenue, top states
*/
package router
