// Package curate derives per-product performance metrics from validated,
// normalized record sets. It joins orders against products with left-join
// semantics, coalesces missing aggregates and assigns a revenue rank with
// minimum-rank tie-break (relational RANK() semantics).
package curate

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/curator-io/curator/internal/table"
)

// PerformanceRecord is the derived per-product entity. It is created once
// per curation run and never mutated afterwards.
type PerformanceRecord struct {
	ProductID         string
	TotalOrders       int
	TotalQuantitySold int64
	AvgOrderQuantity  decimal.Decimal
	TotalRevenue      decimal.Decimal
	FirstOrderDate    *time.Time
	LastOrderDate     *time.Time
	DaysSinceLast     *int
	PerformanceRank   int
}

// Engine computes curated outputs. The clock is injected so recency
// metrics are reproducible in tests.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for days_since_last_order.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a curation engine. A nil logger discards diagnostics.
func New(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// aggregate holds the per-product order facts before the join.
type aggregate struct {
	orders   int
	quantity int64
	revenue  decimal.Decimal
	first    time.Time
	last     time.Time
}

// Curate aggregates order facts per product and left-joins them onto the
// full product set, so every product appears exactly once even with zero
// matching orders. It expects validated, normalized inputs; referential
// violations must already have been eliminated upstream.
func (e *Engine) Curate(orders, products *table.Table) ([]PerformanceRecord, error) {
	for _, col := range []string{"product_id", "quantity", "total_amount", "order_date"} {
		if !orders.HasColumn(col) {
			return nil, fmt.Errorf("orders record set is missing column %q", col)
		}
	}
	if !products.HasColumn("product_id") {
		return nil, fmt.Errorf("products record set is missing column %q", "product_id")
	}

	aggs := e.aggregateOrders(orders)

	records := make([]PerformanceRecord, 0, products.Len())
	today := dateOnly(e.now())
	for i := range products.Rows {
		id := products.Get(i, "product_id").Format()
		rec := PerformanceRecord{
			ProductID:        id,
			AvgOrderQuantity: decimal.Zero.Round(2),
			TotalRevenue:     decimal.Zero.Round(2),
		}

		if agg, ok := aggs[id]; ok {
			rec.TotalOrders = agg.orders
			rec.TotalQuantitySold = agg.quantity
			rec.TotalRevenue = agg.revenue.Round(2)
			rec.AvgOrderQuantity = decimal.NewFromInt(agg.quantity).
				Div(decimal.NewFromInt(int64(agg.orders))).Round(2)
			if !agg.first.IsZero() {
				first := agg.first
				rec.FirstOrderDate = &first
			}
			if !agg.last.IsZero() {
				last := agg.last
				rec.LastOrderDate = &last
				days := int(today.Sub(dateOnly(last)).Hours() / 24)
				rec.DaysSinceLast = &days
			}
		}
		records = append(records, rec)
	}

	rankByRevenue(records)

	e.logger.Info("curation completed",
		"products", len(records), "orders", orders.Len())
	return records, nil
}

func (e *Engine) aggregateOrders(orders *table.Table) map[string]aggregate {
	aggs := make(map[string]aggregate)
	for i := range orders.Rows {
		id := orders.Get(i, "product_id")
		if id.IsNull() {
			continue
		}
		key := id.Format()
		agg := aggs[key]

		agg.orders++
		if q := orders.Get(i, "quantity"); q.IsNumeric() {
			agg.quantity += int64(q.FloatVal())
		}
		if amt := orders.Get(i, "total_amount"); amt.IsNumeric() {
			agg.revenue = agg.revenue.Add(decimal.NewFromFloat(amt.FloatVal()))
		}
		if d := orders.Get(i, "order_date"); d.Kind() == table.KindDate {
			t := d.Time()
			if agg.first.IsZero() || t.Before(agg.first) {
				agg.first = t
			}
			if agg.last.IsZero() || t.After(agg.last) {
				agg.last = t
			}
		}

		aggs[key] = agg
	}
	return aggs
}

// rankByRevenue assigns performance ranks in descending revenue order with
// minimum-rank tie-break: products tied on revenue share the lowest
// applicable rank, and the next distinct revenue takes previous rank plus
// the number of ties.
func rankByRevenue(records []PerformanceRecord) {
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return records[order[a]].TotalRevenue.GreaterThan(records[order[b]].TotalRevenue)
	})

	rank := 0
	for pos, idx := range order {
		if pos == 0 || !records[idx].TotalRevenue.Equal(records[order[pos-1]].TotalRevenue) {
			rank = pos + 1
		}
		records[idx].PerformanceRank = rank
	}
}

// Header returns the persisted column set for performance records.
func Header() []string {
	return []string{
		"product_id", "total_orders", "total_quantity_sold", "avg_order_quantity",
		"total_revenue", "first_order_date", "last_order_date",
		"days_since_last_order", "performance_rank",
	}
}

// Rows renders performance records for persistence. Monetary and average
// fields keep two fractional digits; absent dates render empty.
func Rows(records []PerformanceRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ProductID,
			strconv.Itoa(r.TotalOrders),
			strconv.FormatInt(r.TotalQuantitySold, 10),
			r.AvgOrderQuantity.StringFixed(2),
			r.TotalRevenue.StringFixed(2),
			formatDate(r.FirstOrderDate),
			formatDate(r.LastOrderDate),
			formatDays(r.DaysSinceLast),
			strconv.Itoa(r.PerformanceRank),
		})
	}
	return rows
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(table.DateLayout)
}

func formatDays(d *int) string {
	if d == nil {
		return ""
	}
	return strconv.Itoa(*d)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// JoinOrders produces the curated order-level table: normalized orders
// enriched with the product display columns, prior to aggregation. Order
// rows keep their position; the product attributes come from the validated
// product set.
func (e *Engine) JoinOrders(orders, products *table.Table) *table.Table {
	extra := []string{"product_name", "category", "price"}

	productIdx := make(map[string]int, products.Len())
	for i := range products.Rows {
		productIdx[strings.ToUpper(products.Get(i, "product_id").Format())] = i
	}

	cols := make([]table.Column, 0, len(orders.Columns)+len(extra))
	cols = append(cols, orders.Columns...)
	for _, name := range extra {
		if ci := products.ColumnIndex(name); ci >= 0 {
			cols = append(cols, products.Columns[ci])
		}
	}

	out := table.New("curated_orders", cols)
	for i := range orders.Rows {
		row := orders.CopyRow(i)
		pi, ok := productIdx[strings.ToUpper(orders.Get(i, "product_id").Format())]
		for _, name := range extra {
			if ci := products.ColumnIndex(name); ci >= 0 {
				if ok {
					row = append(row, products.Rows[pi][ci])
				} else {
					row = append(row, table.Null())
				}
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
