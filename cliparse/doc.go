// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Cobra commands register the same flags on their own flag set and resolve
afterwards:

	cliparse.RegisterFlags(cmd.Flags(), &cfg)
	// after cobra has parsed
	err := cliparse.Resolve(&cfg)

# Config Fields

  - Port: API listen port (default: 8000)
  - DatabaseType: postgres, mysql or sqlite (default: sqlite)
  - DatabaseURL: full DSN; when empty one is built from DBHost, DBPort,
    DBUser, DBPassword and DBName
  - DataDir: directory with the four Olist CSV files (default: data)
  - ScheduleInterval: time between scheduled runs (default: 1h)
  - DeliveryPolicy: flag or exclude orders delivered before purchase
  - LockFile: advisory lock file shared by all processes (default:
    olist-etl.lock in os.TempDir())
  - RunOnStart, RetryAttempts (default 3), RetryDelay (default 10s)
  - KafkaBrokers, KafkaTopic: optional run event publishing

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p, --port
	DATABASE_TYPE     → -t, --db-type
	DATABASE_URL      → -d, --db-url
	DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME
	DATA_DIR          → --data-dir
	SCHEDULE_INTERVAL → --interval
	DELIVERY_POLICY   → --delivery-policy
	LOCK_FILE         → --lock-file
	RUN_ON_START      → --run-on-start
	RETRY_ATTEMPTS    → --retries
	RETRY_DELAY       → --retry-delay
	KAFKA_BROKERS     → --kafka-brokers (comma separated)
	KAFKA_TOPIC       → --kafka-topic

CLI flags take precedence over environment variables. LoadEnvFile reads a
.env file first; values already present in the environment win.

# Validation

Resolve returns an error naming the setting when:

  - the database type is unknown
  - neither a DSN nor a database user is available (non-sqlite)
  - the schedule interval is shorter than one second
  - the delivery policy is not flag or exclude
  - a numeric or duration env variable does not parse
*/
package cliparse
