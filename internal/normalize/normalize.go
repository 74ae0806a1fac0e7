// Package normalize applies deterministic canonicalization to validated
// records: whitespace trimming, 2-decimal rounding, domain casing and the
// canonical date form. The transform is idempotent; applying it twice
// yields the same output as applying it once.
package normalize

import (
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/curator-io/curator/internal/table"
)

// Config is the declarative column→canonicalization table. Adding a column
// to one of the lists needs no engine change.
type Config struct {
	// TitleColumns are display-name columns canonicalized to title case.
	TitleColumns []string `koanf:"title_columns"`
	// UpperColumns are identifier and status columns canonicalized to
	// upper case.
	UpperColumns []string `koanf:"upper_columns"`
	// DateColumns are reformatted into the canonical storage form.
	DateColumns []string `koanf:"date_columns"`
	// DateInputLayout is the layout dates arrive in after validation.
	DateInputLayout string `koanf:"date_input_layout"`
}

// DefaultConfig returns the canonicalization assignments for the standard
// orders/products column set.
func DefaultConfig() Config {
	return Config{
		TitleColumns:    []string{"product_name"},
		UpperColumns:    []string{"order_status", "order_id", "product_id", "customer_id", "supplier_id"},
		DateColumns:     []string{"order_date"},
		DateInputLayout: "2006-01-02",
	}
}

// Normalizer canonicalizes validated record sets.
type Normalizer struct {
	cfg    Config
	logger *slog.Logger
	caser  cases.Caser

	title map[string]bool
	upper map[string]bool
	dates map[string]bool
}

// New creates a Normalizer. A nil logger discards diagnostics.
func New(cfg Config, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.DateInputLayout == "" {
		cfg.DateInputLayout = DefaultConfig().DateInputLayout
	}
	return &Normalizer{
		cfg:    cfg,
		logger: logger,
		caser:  cases.Title(language.English),
		title:  toSet(cfg.TitleColumns),
		upper:  toSet(cfg.UpperColumns),
		dates:  toSet(cfg.DateColumns),
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// Apply returns a canonicalized copy of the table. Null cells pass through
// untouched. Date columns are converted to typed date values, so their
// column kind in the result is date.
func (n *Normalizer) Apply(t *table.Table) *table.Table {
	out := t.CloneEmpty()
	for i, col := range out.Columns {
		if n.dates[col.Name] {
			out.Columns[i].Kind = table.KindDate
		}
	}

	floats := 0
	for ri := range t.Rows {
		row := t.CopyRow(ri)
		for ci, col := range t.Columns {
			v := row[ci]
			if v.IsNull() {
				continue
			}
			switch {
			case n.dates[col.Name]:
				row[ci] = n.canonicalDate(v)
			case v.Kind() == table.KindFloat:
				row[ci] = roundValue(v)
				floats++
			case v.Kind() == table.KindString:
				row[ci] = n.canonicalText(col.Name, v)
			}
		}
		out.Rows = append(out.Rows, row)
	}

	if floats == 0 {
		n.logger.Debug("no float cells found to round", "table", t.Name)
	}
	return out
}

func (n *Normalizer) canonicalText(column string, v table.Value) table.Value {
	s := strings.TrimSpace(v.Str())
	switch {
	case n.title[column]:
		s = n.caser.String(s)
	case n.upper[column]:
		s = strings.ToUpper(s)
	}
	return table.String(s)
}

// canonicalDate converts a validated date cell into a typed date value.
// Already-typed dates pass through, which is what makes a second
// application a no-op. Strings are parsed against the input layout first,
// then the canonical storage layout; anything else coerces to null.
func (n *Normalizer) canonicalDate(v table.Value) table.Value {
	if v.Kind() == table.KindDate {
		return v
	}
	if v.Kind() != table.KindString {
		return table.Null()
	}
	s := strings.TrimSpace(v.Str())
	if t, err := time.Parse(n.cfg.DateInputLayout, s); err == nil {
		return table.Date(t)
	}
	if t, err := time.Parse(table.DateLayout, s); err == nil {
		return table.Date(t)
	}
	return table.Null()
}

// roundValue rounds a float cell to 2 fractional digits using decimal
// arithmetic, so re-rounding an already-rounded value is exact.
func roundValue(v table.Value) table.Value {
	d := decimal.NewFromFloat(v.FloatVal()).Round(2)
	f, _ := d.Float64()
	return table.Float(f)
}
