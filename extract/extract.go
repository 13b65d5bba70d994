// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package extract

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

// Source names
const (
	SourceCustomers  = "customers"
	SourceOrders     = "orders"
	SourceOrderItems = "order_items"
	SourcePayments   = "payments"
)

// SourceNames lists the sources in extraction order.
var SourceNames = []string{SourceCustomers, SourceOrders, SourceOrderItems, SourcePayments}

// DefaultFiles maps each source to its Olist file name.
var DefaultFiles = map[string]string{
	SourceCustomers:  "olist_customers_dataset.csv",
	SourceOrders:     "olist_orders_dataset.csv",
	SourceOrderItems: "olist_order_items_dataset.csv",
	SourcePayments:   "olist_order_payments_dataset.csv",
}

// RequiredColumns lists the header columns each source must carry.
var RequiredColumns = map[string][]string{
	SourceCustomers: {"customer_id", "customer_unique_id", "customer_city", "customer_state"},
	SourceOrders: {
		"order_id", "customer_id", "order_status", "order_purchase_timestamp",
		"order_delivered_customer_date", "order_estimated_delivery_date",
	},
	SourceOrderItems: {"order_id", "order_item_id", "product_id", "price", "freight_value"},
	SourcePayments:   {"order_id", "payment_type", "payment_installments", "payment_value"},
}

// Table is one source read into memory. Every data row has len(Header) fields.
type Table struct {
	Name   string
	Path   string
	Header []string
	Rows   [][]string
	// Ragged counts rows whose field count differed from the header. They are
	// padded or truncated, never dropped.
	Ragged int

	index map[string]int
}

// Col returns the position of column name, or -1.
func (t *Table) Col(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the header carries column name.
func (t *Table) Has(name string) bool {
	return t.Col(name) >= 0
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Sources holds the four extracted tables.
type Sources struct {
	Customers  *Table
	Orders     *Table
	OrderItems *Table
	Payments   *Table
}

// Table returns the table for a source name.
func (s *Sources) Table(name string) *Table {
	switch name {
	case SourceCustomers:
		return s.Customers
	case SourceOrders:
		return s.Orders
	case SourceOrderItems:
		return s.OrderItems
	case SourcePayments:
		return s.Payments
	}
	return nil
}

// Counts returns the data row count per source.
func (s *Sources) Counts() map[string]int {
	counts := make(map[string]int, len(SourceNames))
	for _, name := range SourceNames {
		if t := s.Table(name); t != nil {
			counts[name] = t.Len()
		}
	}
	return counts
}

// Extractor reads the source files from a directory.
type Extractor struct {
	dir   string
	files map[string]string
}

// NewExtractor creates an extractor for dir using the default file names.
// files overrides individual file names by source.
func NewExtractor(dir string, files map[string]string) *Extractor {
	merged := make(map[string]string, len(DefaultFiles))
	for k, v := range DefaultFiles {
		merged[k] = v
	}
	for k, v := range files {
		merged[k] = v
	}
	return &Extractor{dir: dir, files: merged}
}

// Path returns the file path for a source.
func (e *Extractor) Path(source string) string {
	return filepath.Join(e.dir, e.files[source])
}

// Extract reads all four sources. It fails fast on the first missing file or
// missing column and never touches storage.
func (e *Extractor) Extract(ctx context.Context) (*Sources, error) {
	slog.Info("starting data extraction", "dir", e.dir)

	tables := make(map[string]*Table, len(SourceNames))
	for _, name := range SourceNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, err := ReadTable(name, e.Path(name))
		if err != nil {
			return nil, err
		}
		tables[name] = t

		slog.Info("source extracted",
			"source", name,
			"rows", t.Len(),
			"rows_human", humanize.Comma(int64(t.Len())),
			"ragged", t.Ragged,
		)
	}

	return &Sources{
		Customers:  tables[SourceCustomers],
		Orders:     tables[SourceOrders],
		OrderItems: tables[SourceOrderItems],
		Payments:   tables[SourcePayments],
	}, nil
}

// ReadTable opens path and parses it as the named source.
func ReadTable(source, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &SourceNotFoundError{Source: source, Path: path}
		}
		return nil, errors.Wrapf(err, "opening source %s", source)
	}
	defer f.Close()

	t, err := Parse(source, f)
	if err != nil {
		return nil, err
	}
	t.Path = path
	return t, nil
}

// Parse reads delimited text with a header row and validates the source's
// required columns.
func Parse(source string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &SchemaError{Source: source}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading header of %s", source)
	}

	t := &Table{Name: source, index: make(map[string]int, len(header))}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		t.Header = append(t.Header, h)
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}

	for _, col := range RequiredColumns[source] {
		if !t.Has(col) {
			return nil, &SchemaError{Source: source, Column: col}
		}
	}

	width := len(t.Header)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", source)
		}

		if len(rec) != width {
			t.Ragged++
			fixed := make([]string, width)
			copy(fixed, rec)
			rec = fixed
		}
		t.Rows = append(t.Rows, rec)
	}

	return t, nil
}
