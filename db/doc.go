// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections, dialects and schema creation.

# Connecting

Open selects the driver from Config.DatabaseType and pings the database:

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

Drivers:

  - postgres: github.com/lib/pq
  - mysql: github.com/go-sql-driver/mysql (DSN built with mysql.Config, parseTime on)
  - sqlite: modernc.org/sqlite (WAL journal and a busy timeout unless the DSN sets pragmas)

# Placeholders

Queries are written with '?' placeholders and rebound per dialect:

	row := conn.QueryRowContext(ctx, conn.Rebind("SELECT ... WHERE customer_id = ?"), id)

# Schema Creation

CreateSchema initializes all live tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

Source tables, as parsed and deduplicated:

  - customers: PK customer_id
  - orders: PK order_id
  - order_items: PK (order_id, order_item_id)
  - payments: PK (order_id, payment_sequential)

Derived tables:

  - master: one row per joined (order, item, payment), PK row_num
  - sales_summary: per customer
  - delivery_summary: per state
  - product_summary: per product
  - state_summary: per state

# Indexes

Every table carrying one of customer_id, customer_state, product_id or
order_id gets an index named idx_<table>_<column>, unless that column is the
table's whole primary key.

The loader reuses the same table definitions (CreateTableSQL, CreateIndexSQL,
InsertSQL) to build staging tables.
*/
package db
