// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Source file names, duplicated from package extract to keep testutil free of
// pipeline imports.
var sourceFiles = map[string]string{
	"customers":   "olist_customers_dataset.csv",
	"orders":      "olist_orders_dataset.csv",
	"order_items": "olist_order_items_dataset.csv",
	"payments":    "olist_order_payments_dataset.csv",
}

// CSV headers in the column order of the Olist dataset
const (
	CustomersHeader  = "customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state\n"
	OrdersHeader     = "order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date\n"
	OrderItemsHeader = "order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value\n"
	PaymentsHeader   = "order_id,payment_sequential,payment_type,payment_installments,payment_value\n"
)

// ExampleSources returns CSV contents keyed by source name: 3 customers
// (two in SP, one in RJ), 2 orders from the SP customers (o1 delivered after
// exactly 5 days, o2 not delivered), one item each, and payments of 100 and 50.
func ExampleSources() map[string]string {
	return map[string]string{
		"customers": CustomersHeader +
			"c1,u1,01001,sao paulo,SP\n" +
			"c2,u2,13001,campinas,SP\n" +
			"c3,u3,20001,rio de janeiro,RJ\n",
		"orders": OrdersHeader +
			"o1,c1,delivered,2018-01-01 10:00:00,2018-01-01 11:00:00,2018-01-02 09:00:00,2018-01-06 10:00:00,2018-01-10 00:00:00\n" +
			"o2,c2,shipped,2018-01-02 12:00:00,2018-01-02 13:00:00,2018-01-03 09:00:00,,2018-01-12 00:00:00\n",
		"order_items": OrderItemsHeader +
			"o1,1,p1,s1,2018-01-03 10:00:00,90.00,10.00\n" +
			"o2,1,p2,s1,2018-01-04 12:00:00,45.00,5.00\n",
		"payments": PaymentsHeader +
			"o1,1,credit_card,1,100.00\n" +
			"o2,1,boleto,1,50.00\n",
	}
}

// LargerSources extends ExampleSources with a multi-item, multi-payment RJ
// order and an order referencing a customer that does not exist.
func LargerSources() map[string]string {
	files := ExampleSources()
	files["orders"] += "o3,c3,delivered,2018-02-01 08:00:00,,,2018-02-03 20:00:00,2018-02-02 00:00:00\n" +
		"o4,c9,delivered,2018-02-05 08:00:00,,,2018-02-07 08:00:00,2018-02-20 00:00:00\n"
	files["order_items"] += "o3,1,p1,s2,2018-02-02 08:00:00,80.00,12.50\n" +
		"o3,2,p3,s2,2018-02-02 08:00:00,20.25,7.75\n" +
		"o4,1,p1,s1,2018-02-06 08:00:00,99.00,1.00\n"
	files["payments"] += "o3,1,credit_card,3,70.00\n" +
		"o3,2,voucher,1,50.50\n" +
		"o4,1,boleto,1,100.00\n"
	return files
}

// WriteSources writes CSV contents keyed by source name into a temp dir
// using the default Olist file names and returns the dir.
func WriteSources(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		file, ok := sourceFiles[name]
		if !ok {
			t.Fatalf("unknown source %q", name)
		}
		if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", file, err)
		}
	}
	return dir
}
