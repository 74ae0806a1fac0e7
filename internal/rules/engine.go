package rules

// engine.go - rule dispatch over a working record set

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/curator-io/curator/internal/quarantine"
	"github.com/curator-io/curator/internal/table"
)

// Engine applies rule sets to record sets. It holds no per-run state; the
// logger and clock are injected so validation is testable without a
// logging backend and with a fixed current date.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
	caser  cases.Caser
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Used by the date-format
// repair and annotation timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a rule engine. A nil logger discards diagnostics.
func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		logger: logger,
		now:    time.Now,
		caser:  cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply evaluates the rule set against the record set, column by column in
// declared order. Each rule sees the current state of the working set, so
// later rules observe earlier rejections and repairs. It returns the
// validated subset and the deduplicated quarantine annotations.
//
// Foreign-key rules resolve their target in refs, which must hold the
// already-validated target record sets.
func (e *Engine) Apply(t *table.Table, set *Set, refs map[string]*table.Table) (*table.Table, []quarantine.Annotation) {
	working := t.CloneEmpty()
	for i := range t.Rows {
		working.Rows = append(working.Rows, t.CopyRow(i))
	}

	var anns []quarantine.Annotation
	for _, rule := range set.Rules {
		if !working.HasColumn(rule.Column) {
			e.logger.Warn("rule column not found in record set, skipping",
				"dataset", set.Dataset, "column", rule.Column, "rule", string(rule.Kind))
			continue
		}
		working, anns = e.applyRule(working, rule, refs, anns)
	}

	return working, dedupe(anns)
}

// applyRule evaluates one rule over the working set and returns the
// surviving rows plus accumulated annotations.
func (e *Engine) applyRule(working *table.Table, rule Rule, refs map[string]*table.Table, anns []quarantine.Annotation) (*table.Table, []quarantine.Annotation) {
	out := working.CloneEmpty()
	cols := working.ColumnNames()
	failures := 0

	// Per-rule evaluation state that spans rows.
	seenKeys := make(map[string]bool)
	var fkIndex map[string]bool
	if rule.Kind == ForeignKey {
		fkIndex = e.foreignKeyIndex(rule, refs)
	}

	for i := range working.Rows {
		v := working.Get(i, rule.Column)
		if e.passes(rule, v, working, i, seenKeys, fkIndex) {
			out.Rows = append(out.Rows, working.Rows[i])
			continue
		}

		failures++
		snapshot := working.CopyRow(i)

		if rule.Policy == PolicyRepair {
			colKind := working.Columns[working.ColumnIndex(rule.Column)].Kind
			if repaired, fixed := e.repair(rule, v, colKind); fixed && e.passes(rule, repaired, working, i, seenKeys, fkIndex) {
				working.Set(i, rule.Column, repaired)
				out.Rows = append(out.Rows, working.Rows[i])
				anns = append(anns, quarantine.Annotation{
					Columns:   cols,
					Record:    snapshot,
					ErrColumn: rule.Column,
					ErrType:   rule.errType(),
					Severity:  quarantine.SeverityWarning,
					Timestamp: e.now(),
				})
				continue
			}
		}

		anns = append(anns, quarantine.Annotation{
			Columns:   cols,
			Record:    snapshot,
			ErrColumn: rule.Column,
			ErrType:   rule.errType(),
			Severity:  quarantine.SeverityError,
			Timestamp: e.now(),
		})
	}

	if failures > 0 {
		e.logger.Warn("rule violations found",
			"column", rule.Column, "rule", string(rule.Kind),
			"policy", string(rule.Policy), "violations", failures)
	}
	return out, anns
}

// passes evaluates the rule for one value. For PrimaryKey it also records
// the key as seen, so the first occurrence wins and later duplicates fail.
func (e *Engine) passes(rule Rule, v table.Value, working *table.Table, row int, seenKeys map[string]bool, fkIndex map[string]bool) bool {
	switch rule.Kind {
	case NotNull:
		return !v.IsNull()

	case PrimaryKey:
		// Null keys fail as a duplicate-class violation; a synthetic
		// primary key is never invented.
		if v.IsNull() {
			return false
		}
		key := v.Format()
		if seenKeys[key] {
			return false
		}
		seenKeys[key] = true
		return true

	case Positive:
		return v.IsNumeric() && v.FloatVal() > 0

	case NonNegative:
		return v.IsNumeric() && v.FloatVal() >= 0

	case DateFormat:
		if v.Kind() == table.KindDate {
			return true
		}
		if v.Kind() != table.KindString {
			return false
		}
		_, err := time.Parse(rule.Layout, strings.TrimSpace(v.Str()))
		return err == nil

	case Computed:
		return e.consistent(working, row, v)

	case Enumeration:
		if v.Kind() != table.KindString {
			return false
		}
		normalized := e.caser.String(strings.TrimSpace(v.Str()))
		for _, allowed := range rule.Allowed {
			if e.caser.String(allowed) == normalized {
				return true
			}
		}
		return false

	case ForeignKey:
		if v.IsNull() {
			return false
		}
		return fkIndex[strings.ToUpper(strings.TrimSpace(v.Format()))]

	default:
		return true
	}
}

// consistent checks total_amount against quantity * unit_price with a
// relative tolerance. Records with null quantity, unit price or amount
// cannot be verified and fail.
func (e *Engine) consistent(working *table.Table, row int, amount table.Value) bool {
	qty := working.Get(row, "quantity")
	price := working.Get(row, "unit_price")
	if amount.IsNull() || qty.IsNull() || price.IsNull() {
		return false
	}
	expected := qty.FloatVal() * price.FloatVal()
	actual := amount.FloatVal()
	if expected == 0 {
		return actual == 0
	}
	return math.Abs(actual-expected) <= RelativeTolerance*math.Abs(expected)
}

// repair attempts a rule-specific correction. The second return reports
// whether a safe repair exists for this failure; the repaired value is
// still re-checked by the caller, so an unrepairable residue (e.g. abs(0)
// under positive) falls through to rejection.
func (e *Engine) repair(rule Rule, v table.Value, colKind table.Kind) (table.Value, bool) {
	switch rule.Kind {
	case NotNull:
		return repairNull(rule.Default, colKind)

	case Positive:
		if !v.IsNumeric() {
			return v, false
		}
		return absValue(v), true

	case NonNegative:
		if v.IsNull() {
			return table.Int(0), true
		}
		if !v.IsNumeric() {
			return v, false
		}
		return absValue(v), true

	case DateFormat:
		// An unparsable date is replaced with the current date; the
		// substitution stays visible in quarantine rather than passing
		// silently as valid history.
		return table.String(e.now().Format(rule.Layout)), true

	default:
		// Duplicate primary keys, inconsistent totals, enum non-members
		// and orphaned foreign keys have no safe repair.
		return v, false
	}
}

// repairNull resolves the substitution for a null under repair policy.
// Text columns fall back to a sentinel label; numeric columns are only
// repairable when the rule declares an explicit default.
func repairNull(def string, colKind table.Kind) (table.Value, bool) {
	switch colKind {
	case table.KindInt:
		if def == "" {
			return table.Null(), false
		}
		n, err := strconv.ParseInt(def, 10, 64)
		if err != nil {
			return table.Null(), false
		}
		return table.Int(n), true
	case table.KindFloat:
		if def == "" {
			return table.Null(), false
		}
		f, err := strconv.ParseFloat(def, 64)
		if err != nil {
			return table.Null(), false
		}
		return table.Float(f), true
	default:
		if def != "" {
			return table.String(def), true
		}
		return table.String("UNKNOWN"), true
	}
}

func absValue(v table.Value) table.Value {
	if v.Kind() == table.KindInt {
		n := v.IntVal()
		if n < 0 {
			n = -n
		}
		return table.Int(n)
	}
	return table.Float(math.Abs(v.FloatVal()))
}

// foreignKeyIndex builds the membership index for a foreign-key rule from
// the already-validated target record set. Matching is case-insensitive on
// the formatted key so repaired casing never breaks referential checks.
func (e *Engine) foreignKeyIndex(rule Rule, refs map[string]*table.Table) map[string]bool {
	index := make(map[string]bool)
	target := refs[rule.Target]
	if target == nil {
		e.logger.Warn("foreign key target record set not available",
			"column", rule.Column, "target", rule.Target)
		return index
	}
	ci := target.ColumnIndex(rule.TargetColumn)
	if ci < 0 {
		e.logger.Warn("foreign key target column not found",
			"column", rule.Column, "target", rule.Target, "target_column", rule.TargetColumn)
		return index
	}
	for _, row := range target.Rows {
		if !row[ci].IsNull() {
			index[strings.ToUpper(strings.TrimSpace(row[ci].Format()))] = true
		}
	}
	return index
}

// dedupe suppresses annotations with identical column, error type and
// record content, preserving first-seen order.
func dedupe(anns []quarantine.Annotation) []quarantine.Annotation {
	seen := make(map[string]bool, len(anns))
	out := anns[:0]
	for _, a := range anns {
		k := a.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	return out
}
