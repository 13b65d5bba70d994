// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package extract reads the four Olist source files into memory.

# Extraction

	ex := extract.NewExtractor(cfg.DataDir, nil)
	src, err := ex.Extract(ctx)

Each source is a delimited text file with a header row. Default names:

  - customers:   olist_customers_dataset.csv
  - orders:      olist_orders_dataset.csv
  - order_items: olist_order_items_dataset.csv
  - payments:    olist_order_payments_dataset.csv

# Errors

Both errors abort the run before storage is touched:

  - SourceNotFoundError: a file is missing
  - SchemaError: a required header column is missing

Rows are never dropped here. Rows with the wrong number of fields are padded
or truncated to the header width and counted in Table.Ragged. Cell values
stay strings; parsing happens in package transform.
*/
package extract
