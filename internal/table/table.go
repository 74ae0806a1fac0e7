// Package table provides the in-memory record set model for the pipeline.
// A Table is an ordered set of typed columns plus rows of scalar values;
// rows are addressed positionally and cells by column name.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the scalar type of a cell value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// ParseKind converts a schema type name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "decimal", "number":
		return KindFloat, nil
	case "date":
		return KindDate, nil
	default:
		return KindNull, fmt.Errorf("unknown column type %q", s)
	}
}

// DateLayout is the canonical storage layout for date values (DD-MM-YYYY).
const DateLayout = "02-01-2006"

// Value is a typed scalar cell. The zero value is null.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Kind reports the scalar type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string content. Only meaningful for KindString.
func (v Value) Str() string { return v.str }

// IntVal returns the integer content. Only meaningful for KindInt.
func (v Value) IntVal() int64 { return v.i }

// FloatVal returns the numeric content as a float64.
// Integer values are widened; other kinds return 0.
func (v Value) FloatVal() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Time returns the date content. Only meaningful for KindDate.
func (v Value) Time() time.Time { return v.t }

// IsNumeric reports whether the value carries an int or float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Format renders the value in its canonical external form.
// Null renders as the empty string, dates as DD-MM-YYYY.
func (v Value) Format() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindDate:
		return v.t.Format(DateLayout)
	default:
		return ""
	}
}

// Equal compares two values for identical kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// Column describes a named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Table is an ordered record set. Rows are slices of values aligned
// with Columns.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]Value

	index map[string]int
}

// New creates an empty table with the given name and columns.
func New(name string, cols []Column) *Table {
	t := &Table{Name: name, Columns: cols}
	t.rebuildIndex()
	return t
}

func (t *Table) rebuildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c.Name] = i
	}
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t.index == nil {
		t.rebuildIndex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool { return len(t.Rows) == 0 }

// AppendRow adds a row. The row must be aligned with Columns.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table %s has %d columns", len(row), t.Name, len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Get returns the cell at the given row for the named column.
// Returns null for unknown columns.
func (t *Table) Get(row int, col string) Value {
	i := t.ColumnIndex(col)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return Null()
	}
	return t.Rows[row][i]
}

// Set replaces the cell at the given row for the named column.
func (t *Table) Set(row int, col string, v Value) {
	i := t.ColumnIndex(col)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return
	}
	t.Rows[row][i] = v
}

// CloneEmpty returns a new table with the same name and columns and no rows.
func (t *Table) CloneEmpty() *Table {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	return New(t.Name, cols)
}

// CopyRow returns an independent copy of the given row.
func (t *Table) CopyRow(row int) []Value {
	dup := make([]Value, len(t.Rows[row]))
	copy(dup, t.Rows[row])
	return dup
}

// Filter returns a new table containing the rows for which keep returns true.
// Row value slices are shared with the receiver.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := t.CloneEmpty()
	for i := range t.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// Fingerprint returns a stable textual identity for a row, used for
// duplicate suppression. It joins the formatted cell values with an
// unprintable separator.
func Fingerprint(row []Value) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = v.Kind().String() + ":" + v.Format()
	}
	return strings.Join(parts, "\x1f")
}
