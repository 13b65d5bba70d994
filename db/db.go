// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/anirudhqwerty/kastack-project/cliparse"
)

// Dialect identifies the SQL flavor of a connection.
type Dialect string

const (
	Postgres Dialect = cliparse.DatabasePostgres
	MySQL    Dialect = cliparse.DatabaseMySQL
	SQLite   Dialect = cliparse.DatabaseSQLite
)

// driverNames maps dialects to registered database/sql driver names.
var driverNames = map[Dialect]string{
	Postgres: "postgres",
	MySQL:    "mysql",
	SQLite:   "sqlite",
}

// DB is a connection pool that knows its dialect. Queries are written with
// '?' placeholders and passed through Rebind.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Rebind converts '?' placeholders to the dialect's bind style.
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(driverNames[d]), query)
}

// Rebind converts '?' placeholders to the connection's bind style.
func (d *DB) Rebind(query string) string {
	return d.Dialect.Rebind(query)
}

// DSN returns the driver name and data source name for cfg.
func DSN(cfg cliparse.Config) (string, string, error) {
	dialect := Dialect(cfg.DatabaseType)
	driver, ok := driverNames[dialect]
	if !ok {
		return "", "", errors.Newf("unsupported database type %q", cfg.DatabaseType)
	}

	switch dialect {
	case Postgres:
		if cfg.DatabaseURL != "" {
			return driver, cfg.DatabaseURL, nil
		}
		port := cfg.DBPort
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
			Host:     fmt.Sprintf("%s:%d", cfg.DBHost, port),
			Path:     "/" + cfg.DBName,
			RawQuery: "sslmode=disable",
		}
		return driver, u.String(), nil

	case MySQL:
		if cfg.DatabaseURL != "" {
			mc, err := mysql.ParseDSN(cfg.DatabaseURL)
			if err != nil {
				return "", "", errors.Wrap(err, "parsing mysql DSN")
			}
			mc.ParseTime = true
			mc.Loc = time.UTC
			return driver, mc.FormatDSN(), nil
		}
		port := cfg.DBPort
		if port == 0 {
			port = 3306
		}
		mc := mysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", cfg.DBHost, port)
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		return driver, mc.FormatDSN(), nil

	default:
		return driver, sqliteDSN(cfg.DatabaseURL), nil
	}
}

// sqliteDSN adds a busy timeout and WAL journaling unless the DSN sets its
// own pragmas, so readers are not blocked while a load swaps tables.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Open connects to the database described by cfg and verifies the connection.
func Open(ctx context.Context, cfg cliparse.Config) (*DB, error) {
	driver, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", cfg.DatabaseType)
	}
	if Dialect(cfg.DatabaseType) != SQLite {
		conn.SetMaxOpenConns(10)
		conn.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "pinging %s database", cfg.DatabaseType)
	}

	slog.Info("database connected", "type", cfg.DatabaseType)
	return &DB{DB: conn, Dialect: Dialect(cfg.DatabaseType)}, nil
}
