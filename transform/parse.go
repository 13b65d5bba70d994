// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transform

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anirudhqwerty/kastack-project/extract"
)

// Accepted timestamp layouts, tried in order. Values without a zone are UTC.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// rowReader reads typed cells from one table row and records parse failures
// in stats under "<source>.<column>".
type rowReader struct {
	table *extract.Table
	row   []string
	stats *Stats
}

func (r rowReader) str(col string) string {
	i := r.table.Col(col)
	if i < 0 || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r rowReader) fail(col string) {
	r.stats.parseError(r.table.Name + "." + col)
}

// money parses a decimal cell. Empty and malformed cells are both failures.
func (r rowReader) money(col string) *decimal.Decimal {
	s := r.str(col)
	if s == "" {
		r.fail(col)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		r.fail(col)
		return nil
	}
	return &d
}

// integer parses an integer cell. Empty and malformed cells are both failures.
func (r rowReader) integer(col string) (int, bool) {
	s := r.str(col)
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail(col)
		return 0, false
	}
	return n, true
}

// optionalInt parses an integer cell that may be absent from the header.
func (r rowReader) optionalInt(col string) (int, bool) {
	if !r.table.Has(col) {
		return 0, false
	}
	s := r.str(col)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail(col)
		return 0, false
	}
	return n, true
}

// timestamp parses a timestamp cell. Empty cells are NULL. Malformed cells
// are NULL, counted, and reported with ok false.
func (r rowReader) timestamp(col string) (*time.Time, bool) {
	s := r.str(col)
	if s == "" {
		return nil, true
	}
	if t, ok := parseTime(s); ok {
		return &t, true
	}
	r.fail(col)
	return nil, false
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
