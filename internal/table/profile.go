package table

// profile.go - descriptive statistics emitted when raw data is loaded

import (
	"log/slog"
	"math"
)

// ColumnProfile holds descriptive statistics for one column.
type ColumnProfile struct {
	Name     string
	Kind     Kind
	Nulls    int
	Distinct int

	// Numeric summary, only populated when Numeric is true.
	Numeric bool
	Min     float64
	Max     float64
	Mean    float64
}

// Profile holds the initial profiling pass over a loaded record set.
type Profile struct {
	Table         string
	Rows          int
	DuplicateRows int
	Columns       []ColumnProfile
}

// Profile computes descriptive statistics for the table: row count,
// per-column null and distinct counts, duplicate-row count, and a numeric
// min/mean/max summary for int and float columns.
func (t *Table) Profile() *Profile {
	p := &Profile{Table: t.Name, Rows: len(t.Rows)}

	seen := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		fp := Fingerprint(row)
		if seen[fp] {
			p.DuplicateRows++
		}
		seen[fp] = true
	}

	for ci, col := range t.Columns {
		cp := ColumnProfile{Name: col.Name, Kind: col.Kind}
		distinct := make(map[string]struct{})
		var sum float64
		var count int
		cp.Min = math.Inf(1)
		cp.Max = math.Inf(-1)

		for _, row := range t.Rows {
			v := row[ci]
			if v.IsNull() {
				cp.Nulls++
				continue
			}
			distinct[v.Format()] = struct{}{}
			if v.IsNumeric() {
				f := v.FloatVal()
				sum += f
				count++
				if f < cp.Min {
					cp.Min = f
				}
				if f > cp.Max {
					cp.Max = f
				}
			}
		}

		cp.Distinct = len(distinct)
		if count > 0 {
			cp.Numeric = true
			cp.Mean = sum / float64(count)
		} else {
			cp.Min, cp.Max = 0, 0
		}
		p.Columns = append(p.Columns, cp)
	}

	return p
}

// Log emits the profile through the given logger. Empty tables log a
// warning, mirroring the fact that an empty dataset aborts the run later.
func (p *Profile) Log(logger *slog.Logger) {
	if p.Rows == 0 {
		logger.Warn("dataset is empty", "table", p.Table)
		return
	}

	logger.Info("dataset profile",
		"table", p.Table,
		"rows", p.Rows,
		"columns", len(p.Columns),
		"duplicate_rows", p.DuplicateRows,
	)
	for _, c := range p.Columns {
		args := []any{"table", p.Table, "column", c.Name, "type", c.Kind.String(), "nulls", c.Nulls, "distinct", c.Distinct}
		if c.Numeric {
			args = append(args, "min", c.Min, "max", c.Max, "mean", c.Mean)
		}
		logger.Debug("column profile", args...)
	}
}
