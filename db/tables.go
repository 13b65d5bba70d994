// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"fmt"
	"strings"
)

// Table names
const (
	TableCustomers  = "customers"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
	TablePayments   = "payments"

	TableMaster          = "master"
	TableSalesSummary    = "sales_summary"
	TableDeliverySummary = "delivery_summary"
	TableProductSummary  = "product_summary"
	TableStateSummary    = "state_summary"
)

// StagingSuffix is appended to a table name while a load is writing it.
const StagingSuffix = "_staging"

// ColumnType is a portable column type mapped per dialect.
type ColumnType int

const (
	TypeID ColumnType = iota
	TypeText
	TypeInt
	TypeBigInt
	TypeMoney
	TypeFloat
	TypeBool
	TypeTimestamp
)

type Column struct {
	Name    string
	Type    ColumnType
	NotNull bool
}

type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
}

// indexedColumns are indexed on every table that carries them.
var indexedColumns = []string{"customer_id", "customer_state", "product_id", "order_id"}

// Has reports whether the table has a column.
func (t Table) Has(col string) bool {
	for _, c := range t.Columns {
		if c.Name == col {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// IndexColumns returns the lookup columns that get a secondary index. A
// single-column primary key is already indexed.
func (t Table) IndexColumns() []string {
	var cols []string
	for _, col := range indexedColumns {
		if !t.Has(col) {
			continue
		}
		if len(t.PrimaryKey) == 1 && t.PrimaryKey[0] == col {
			continue
		}
		cols = append(cols, col)
	}
	return cols
}

// IndexName is the canonical index name for a column of the live table.
func (t Table) IndexName(col string) string {
	return "idx_" + t.Name + "_" + col
}

// columnType returns the SQL type of a column type in this dialect.
func (d Dialect) columnType(ct ColumnType) string {
	switch ct {
	case TypeID:
		if d == MySQL {
			return "VARCHAR(64)"
		}
		return "TEXT"
	case TypeText:
		if d == MySQL {
			return "VARCHAR(255)"
		}
		return "TEXT"
	case TypeInt:
		return "INTEGER"
	case TypeBigInt:
		return "BIGINT"
	case TypeMoney:
		if d == SQLite {
			return "NUMERIC"
		}
		return "DECIMAL(14,2)"
	case TypeFloat:
		if d == Postgres {
			return "DOUBLE PRECISION"
		}
		return "DOUBLE"
	case TypeBool:
		return "BOOLEAN"
	case TypeTimestamp:
		if d == MySQL {
			return "DATETIME"
		}
		return "TIMESTAMP"
	}
	panic(fmt.Sprintf("db: unknown column type %d", ct))
}

// CreateTableSQL returns the CREATE TABLE statement for t under the given
// name. MySQL has no CREATE INDEX IF NOT EXISTS, so its secondary indexes are
// declared inline when withIndexes is set.
func (d Dialect) CreateTableSQL(t Table, name string, ifNotExists, withIndexes bool) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(name)
	b.WriteString(" (\n")

	for _, c := range t.Columns {
		b.WriteString("    ")
		b.WriteString(c.Name)
		b.WriteString(" ")
		b.WriteString(d.columnType(c.Type))
		if c.NotNull {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}
	b.WriteString("    PRIMARY KEY (")
	b.WriteString(strings.Join(t.PrimaryKey, ", "))
	b.WriteString(")")

	if d == MySQL && withIndexes {
		for _, col := range t.IndexColumns() {
			fmt.Fprintf(&b, ",\n    INDEX %s (%s)", t.IndexName(col), col)
		}
	}
	b.WriteString("\n)")
	return b.String()
}

// CreateIndexSQL returns the secondary index statements for the live table.
// MySQL declares its indexes in CreateTableSQL and gets none here.
func (d Dialect) CreateIndexSQL(t Table, ifNotExists bool) []string {
	if d == MySQL {
		return nil
	}
	var stmts []string
	for _, col := range t.IndexColumns() {
		stmt := "CREATE INDEX "
		if ifNotExists {
			stmt += "IF NOT EXISTS "
		}
		stmts = append(stmts, fmt.Sprintf("%s%s ON %s (%s)", stmt, t.IndexName(col), t.Name, col))
	}
	return stmts
}

// InsertSQL returns a parameterized multi-row INSERT of rows rows into name
// covering every column of t.
func (d Dialect) InsertSQL(t Table, name string, rows int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ") + ")"
	values := strings.TrimSuffix(strings.Repeat(tuple+", ", rows), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		name, strings.Join(t.ColumnNames(), ", "), values)
	return d.Rebind(query)
}

// Tables lists every table the pipeline loads, source tables first.
var Tables = []Table{
	{
		Name: TableCustomers,
		Columns: []Column{
			{Name: "customer_id", Type: TypeID, NotNull: true},
			{Name: "customer_unique_id", Type: TypeID},
			{Name: "customer_zip_code_prefix", Type: TypeText},
			{Name: "customer_city", Type: TypeText},
			{Name: "customer_state", Type: TypeText},
		},
		PrimaryKey: []string{"customer_id"},
	},
	{
		Name: TableOrders,
		Columns: []Column{
			{Name: "order_id", Type: TypeID, NotNull: true},
			{Name: "customer_id", Type: TypeID, NotNull: true},
			{Name: "order_status", Type: TypeText},
			{Name: "order_purchase_timestamp", Type: TypeTimestamp},
			{Name: "order_delivered_customer_date", Type: TypeTimestamp},
			{Name: "order_estimated_delivery_date", Type: TypeTimestamp},
		},
		PrimaryKey: []string{"order_id"},
	},
	{
		Name: TableOrderItems,
		Columns: []Column{
			{Name: "order_id", Type: TypeID, NotNull: true},
			{Name: "order_item_id", Type: TypeInt, NotNull: true},
			{Name: "product_id", Type: TypeID, NotNull: true},
			{Name: "seller_id", Type: TypeID},
			{Name: "price", Type: TypeMoney},
			{Name: "freight_value", Type: TypeMoney},
		},
		PrimaryKey: []string{"order_id", "order_item_id"},
	},
	{
		Name: TablePayments,
		Columns: []Column{
			{Name: "order_id", Type: TypeID, NotNull: true},
			{Name: "payment_sequential", Type: TypeInt, NotNull: true},
			{Name: "payment_type", Type: TypeText},
			{Name: "payment_installments", Type: TypeInt},
			{Name: "payment_value", Type: TypeMoney},
		},
		PrimaryKey: []string{"order_id", "payment_sequential"},
	},
	{
		Name: TableMaster,
		Columns: []Column{
			{Name: "row_num", Type: TypeBigInt, NotNull: true},
			{Name: "order_id", Type: TypeID, NotNull: true},
			{Name: "order_item_id", Type: TypeInt, NotNull: true},
			{Name: "payment_sequential", Type: TypeInt, NotNull: true},
			{Name: "customer_id", Type: TypeID, NotNull: true},
			{Name: "customer_unique_id", Type: TypeID},
			{Name: "customer_city", Type: TypeText},
			{Name: "customer_state", Type: TypeText},
			{Name: "customer_zip_code_prefix", Type: TypeText},
			{Name: "order_status", Type: TypeText},
			{Name: "order_purchase_timestamp", Type: TypeTimestamp},
			{Name: "order_delivered_customer_date", Type: TypeTimestamp},
			{Name: "order_estimated_delivery_date", Type: TypeTimestamp},
			{Name: "delivery_days", Type: TypeFloat},
			{Name: "delivery_anomaly", Type: TypeBool, NotNull: true},
			{Name: "product_id", Type: TypeID, NotNull: true},
			{Name: "seller_id", Type: TypeID},
			{Name: "price", Type: TypeMoney},
			{Name: "freight_value", Type: TypeMoney},
			{Name: "payment_type", Type: TypeText},
			{Name: "payment_installments", Type: TypeInt},
			{Name: "payment_value", Type: TypeMoney},
		},
		PrimaryKey: []string{"row_num"},
	},
	{
		Name: TableSalesSummary,
		Columns: []Column{
			{Name: "customer_id", Type: TypeID, NotNull: true},
			{Name: "customer_state", Type: TypeText},
			{Name: "customer_city", Type: TypeText},
			{Name: "total_spent", Type: TypeMoney, NotNull: true},
			{Name: "total_orders", Type: TypeInt, NotNull: true},
			{Name: "total_items", Type: TypeInt, NotNull: true},
			{Name: "avg_order_value", Type: TypeMoney},
			{Name: "avg_price", Type: TypeMoney},
			{Name: "avg_freight", Type: TypeMoney},
		},
		PrimaryKey: []string{"customer_id"},
	},
	{
		Name: TableDeliverySummary,
		Columns: []Column{
			{Name: "customer_state", Type: TypeID, NotNull: true},
			{Name: "total_orders", Type: TypeInt, NotNull: true},
			{Name: "delivered_orders", Type: TypeInt, NotNull: true},
			{Name: "delivery_success_rate", Type: TypeFloat},
			{Name: "avg_delivery_days", Type: TypeFloat},
			{Name: "median_delivery_days", Type: TypeFloat},
			{Name: "fastest_delivery_days", Type: TypeFloat},
			{Name: "slowest_delivery_days", Type: TypeFloat},
			{Name: "on_time_rate", Type: TypeFloat},
			{Name: "delivery_anomalies", Type: TypeInt, NotNull: true},
		},
		PrimaryKey: []string{"customer_state"},
	},
	{
		Name: TableProductSummary,
		Columns: []Column{
			{Name: "product_id", Type: TypeID, NotNull: true},
			{Name: "total_revenue", Type: TypeMoney, NotNull: true},
			{Name: "total_orders", Type: TypeInt, NotNull: true},
			{Name: "total_items_sold", Type: TypeInt, NotNull: true},
			{Name: "avg_price", Type: TypeMoney},
			{Name: "total_freight", Type: TypeMoney, NotNull: true},
			{Name: "avg_freight", Type: TypeMoney},
		},
		PrimaryKey: []string{"product_id"},
	},
	{
		Name: TableStateSummary,
		Columns: []Column{
			{Name: "customer_state", Type: TypeID, NotNull: true},
			{Name: "total_customers", Type: TypeInt, NotNull: true},
			{Name: "total_orders", Type: TypeInt, NotNull: true},
			{Name: "total_revenue", Type: TypeMoney, NotNull: true},
			{Name: "avg_order_value", Type: TypeMoney},
			{Name: "total_items", Type: TypeInt, NotNull: true},
		},
		PrimaryKey: []string{"customer_state"},
	},
}

// Lookup returns the table definition by name.
func Lookup(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
