// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the olist-etl command.

olist-etl extracts the four Olist CSV files (customers, orders, order items,
payments), joins and aggregates them, loads the results into a relational
database and serves them through a read-only JSON API.

# Commands

	olist-etl serve    API server plus the pipeline on a schedule
	olist-etl run      one pipeline run; prints the run summary, exits 1 on failure
	olist-etl schema   create the live tables if they do not exist

# Starting the Server

Settings come from flags, then environment variables, then a .env file in
the working directory:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... olist-etl serve

Or with flags:

	olist-etl serve -p 8000 -t sqlite -d file:olist.db --data-dir ./data

# Configuration

Database:

  - DATABASE_TYPE (-t): postgres, mysql or sqlite (default: sqlite)
  - DATABASE_URL (-d): DSN; overrides the host settings below
  - DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME

Pipeline:

  - DATA_DIR (--data-dir): source CSV directory (default: data)
  - SCHEDULE_INTERVAL (--interval): time between runs (default: 1h)
  - DELIVERY_POLICY (--delivery-policy): flag or exclude (default: flag)
  - RETRY_ATTEMPTS, RETRY_DELAY: retry policy for failed runs (3, 10s)
  - RUN_ON_START (--run-on-start): run once when serve starts
  - LOCK_FILE (--lock-file): advisory lock shared by all processes
    (default: olist-etl.lock in the temp dir)

Run events (optional):

  - KAFKA_BROKERS, KAFKA_TOPIC: publish every run summary to Kafka

Optional settings:

  - PORT (-p): Server port (default: 8000)

# Architecture

  - extract: CSV sources into header-indexed tables
  - transform: typed rows, inner join, summaries
  - loader: staged load and atomic table swap
  - pipeline: one run, single-flight, run summary
  - scheduler: interval runs with retries and run history
  - handlers, router, middleware: the read API
  - db: connections, dialects and table definitions
  - metrics, notify: Prometheus metrics and Kafka run events
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
