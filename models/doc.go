// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the rows moved through the pipeline and the API
response shapes.

# Source Entities

Typed rows parsed from the four Olist CSV files:

  - Customer: customer_id, unique id, zip prefix, city, state
  - Order: order_id, customer_id, status and three timestamps
  - OrderItem: (order_id, order_item_id), product, seller, price, freight
  - Payment: (order_id, payment_sequential), type, installments, value

# Derived Tables

  - MasterRecord: one row per (order, item, payment) after the inner join
  - SalesSummary: per customer
  - DeliverySummary: per customer state
  - ProductSummary: per product
  - StateSummary: per customer state

# Nullable Fields

Pointer fields map to NULL columns and serialize as JSON null. A nil
monetary average or rate means "not applicable" (for example a division by
zero), which is different from zero.

Money uses decimal.Decimal and serializes as a JSON string:

	{"total_spent": "150.00", "avg_order_value": null}

# Run Summary

RunSummary is returned by every pipeline run and listed by
GET /pipeline/runs:

	{
	  "run_id": "3f0c...",
	  "status": "success",
	  "rows_extracted": {"customers": 99441, ...},
	  "rows_joined": 117601,
	  "rows_excluded": 3,
	  "rows_loaded": {"master": 117601, ...}
	}

# Error Response

All API errors use ErrorResponse:

	{"error": "Not Found", "message": "Customer not found"}
*/
package models
