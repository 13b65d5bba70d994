// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/anirudhqwerty/kastack-project/db"
	"github.com/anirudhqwerty/kastack-project/middleware"
	"github.com/anirudhqwerty/kastack-project/models"
)

// filter collects equality predicates for a WHERE clause.
type filter struct {
	clauses []string
	args    []any
}

// eq adds "col = value" unless value is empty.
func (f *filter) eq(col, value string) {
	if value == "" {
		return
	}
	f.clauses = append(f.clauses, col+" = ?")
	f.args = append(f.args, value)
}

// eqFold adds a case-insensitive "col = value" unless value is empty.
func (f *filter) eqFold(col, value string) {
	if value == "" {
		return
	}
	f.clauses = append(f.clauses, "LOWER("+col+") = ?")
	f.args = append(f.args, strings.ToLower(value))
}

func (f filter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// listQuery is a paginated SELECT over one table.
type listQuery struct {
	table   string
	columns []string
	orderBy string
	filter  filter
}

// run counts the matching rows and calls scan for each row of the page.
func (q listQuery) run(ctx context.Context, d *db.DB, page middleware.Pagination, scan func(*sql.Rows) error) (int, error) {
	where := q.filter.where()

	var total int
	countSQL := d.Rebind("SELECT COUNT(*) FROM " + q.table + where)
	if err := d.QueryRowContext(ctx, countSQL, q.filter.args...).Scan(&total); err != nil {
		return 0, errors.Wrapf(err, "counting %s", q.table)
	}

	selectSQL := d.Rebind("SELECT " + strings.Join(q.columns, ", ") + " FROM " + q.table + where +
		" ORDER BY " + q.orderBy + " LIMIT ? OFFSET ?")
	args := append(append([]any{}, q.filter.args...), page.Limit, page.Offset)

	rows, err := d.QueryContext(ctx, selectSQL, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "querying %s", q.table)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return 0, errors.Wrapf(err, "scanning %s", q.table)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, errors.Wrapf(err, "iterating %s", q.table)
	}
	return total, nil
}

// serveList parses pagination, runs q and writes a ListResponse holding
// whatever scan appended to data.
func serveList[T any](w http.ResponseWriter, r *http.Request, d *db.DB, q listQuery, scan func(scanner) (T, error)) {
	page, err := middleware.ParsePagination(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	data := []T{}
	total, err := q.run(r.Context(), d, page, func(rows *sql.Rows) error {
		v, err := scan(rows)
		if err != nil {
			return err
		}
		data = append(data, v)
		return nil
	})
	if err != nil {
		slog.Error("failed to list rows", "table", q.table, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListResponse{
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
		Data:   data,
	})
}
