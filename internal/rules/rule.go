// Package rules implements the column-level data-quality rule engine.
// A Set is a declarative table of per-column rules; the engine is a pure
// dispatcher that applies them in order, partitioning a record set into a
// validated subset and annotated quarantine entries, optionally repairing
// values in place.
package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies a validation rule variant.
type Kind string

const (
	NotNull     Kind = "not_null"
	PrimaryKey  Kind = "primary_key"
	Positive    Kind = "positive"
	NonNegative Kind = "non_negative"
	DateFormat  Kind = "check_date_format"
	Enumeration Kind = "enumeration"
	// Computed checks total_amount against quantity * unit_price within a
	// relative tolerance.
	Computed Kind = "multiple_of_quantity_unit_price"
	// ForeignKey checks membership in another, already-validated record set.
	ForeignKey Kind = "foreign_key_exists"
)

// Policy selects the enforcement strategy for a rule.
type Policy string

const (
	// PolicyReject removes failing records from the working set.
	PolicyReject Policy = "reject"
	// PolicyRepair corrects failing values in place where a safe repair
	// exists, keeping the record and quarantining a warning copy. Failures
	// with no safe repair are still rejected.
	PolicyRepair Policy = "repair"
)

// DefaultDateLayout is the expected input layout for date columns.
const DefaultDateLayout = "2006-01-02"

// RelativeTolerance is the accepted relative deviation for the computed
// consistency check.
const RelativeTolerance = 0.02

// Rule binds one validation rule to one column.
type Rule struct {
	Column       string
	Kind         Kind
	Policy       Policy
	Layout       string   // date layout for DateFormat (DefaultDateLayout when empty)
	Allowed      []string // Enumeration membership, matched case-normalized
	Default      string   // NotNull repair substitution; empty means no safe repair
	Target       string   // ForeignKey target dataset key
	TargetColumn string   // ForeignKey target column (defaults to Column)
}

// Set is the ordered rule table for one dataset.
type Set struct {
	Dataset string
	Rules   []Rule
}

// ParseSet builds a rule Set from a config mapping of column name to rule
// descriptor. A descriptor is a fixed literal ("not_null", "primary_key",
// "positive", "non_negative", "check_date_format",
// "multiple_of_quantity_unit_price", "exists_in_<dataset>"), an ordered
// list of allowed string values (enumeration), or a map form with
// rule/policy/allowed/layout/default keys for policy selection.
//
// The config surface is a mapping and therefore carries no reliable
// declaration order once parsed; rules are applied in the order given by
// columnOrder (the dataset's externally declared schema order), with
// unknown columns appended alphabetically.
func ParseSet(dataset string, raw map[string]any, columnOrder []string) (*Set, error) {
	set := &Set{Dataset: dataset}

	columns := make([]string, 0, len(raw))
	for col := range raw {
		columns = append(columns, col)
	}
	pos := make(map[string]int, len(columnOrder))
	for i, c := range columnOrder {
		pos[c] = i
	}
	sort.Slice(columns, func(i, j int) bool {
		pi, iok := pos[columns[i]]
		pj, jok := pos[columns[j]]
		switch {
		case iok && jok:
			return pi < pj
		case iok:
			return true
		case jok:
			return false
		default:
			return columns[i] < columns[j]
		}
	})

	for _, col := range columns {
		rule, err := parseDescriptor(col, raw[col])
		if err != nil {
			return nil, fmt.Errorf("rule for column %q: %w", col, err)
		}
		set.Rules = append(set.Rules, rule)
	}
	return set, nil
}

func parseDescriptor(column string, desc any) (Rule, error) {
	switch d := desc.(type) {
	case string:
		return parseLiteral(column, d, PolicyReject, "", "")
	case []any:
		allowed, err := stringList(d)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Column: column, Kind: Enumeration, Policy: PolicyReject, Allowed: allowed}, nil
	case []string:
		return Rule{Column: column, Kind: Enumeration, Policy: PolicyReject, Allowed: d}, nil
	case map[string]any:
		return parseMapDescriptor(column, d)
	default:
		// An unparseable rule value type is never coerced into a
		// different rule.
		return Rule{}, fmt.Errorf("unsupported rule descriptor type %T", desc)
	}
}

func parseMapDescriptor(column string, d map[string]any) (Rule, error) {
	policy := PolicyReject
	if p, ok := d["policy"].(string); ok && p != "" {
		switch Policy(p) {
		case PolicyReject, PolicyRepair:
			policy = Policy(p)
		default:
			return Rule{}, fmt.Errorf("unknown policy %q", p)
		}
	}

	layout, _ := d["layout"].(string)
	def, _ := d["default"].(string)

	if allowedRaw, ok := d["allowed"]; ok {
		list, lok := allowedRaw.([]any)
		if !lok {
			return Rule{}, fmt.Errorf("allowed must be a list of strings")
		}
		allowed, err := stringList(list)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Column: column, Kind: Enumeration, Policy: policy, Allowed: allowed}, nil
	}

	literal, ok := d["rule"].(string)
	if !ok || literal == "" {
		return Rule{}, fmt.Errorf("descriptor map requires a rule or allowed key")
	}
	return parseLiteral(column, literal, policy, layout, def)
}

func parseLiteral(column, literal string, policy Policy, layout, def string) (Rule, error) {
	switch Kind(literal) {
	case NotNull, PrimaryKey, Positive, NonNegative, Computed:
		return Rule{Column: column, Kind: Kind(literal), Policy: policy, Default: def}, nil
	case DateFormat:
		if layout == "" {
			layout = DefaultDateLayout
		}
		return Rule{Column: column, Kind: DateFormat, Policy: policy, Layout: layout}, nil
	}
	if target, ok := strings.CutPrefix(literal, "exists_in_"); ok && target != "" {
		return Rule{
			Column:       column,
			Kind:         ForeignKey,
			Policy:       policy,
			Target:       target,
			TargetColumn: column,
		}, nil
	}
	return Rule{}, fmt.Errorf("unknown rule literal %q", literal)
}

func stringList(items []any) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("enumeration values must be strings, got %T", it)
		}
		out = append(out, s)
	}
	return out, nil
}

// Describe returns a short human-readable summary of the rule for
// reporting.
func (r Rule) Describe() string {
	switch r.Kind {
	case Enumeration:
		return fmt.Sprintf("one of [%s]", strings.Join(r.Allowed, ", "))
	case DateFormat:
		return fmt.Sprintf("date in layout %s", r.Layout)
	case ForeignKey:
		return fmt.Sprintf("exists in %s.%s", r.Target, r.TargetColumn)
	default:
		return string(r.Kind)
	}
}

// errType returns the quarantine error type string for the rule,
// preserving the wording of the original rule set.
func (r Rule) errType() string {
	switch r.Kind {
	case NotNull:
		return "Value is Null"
	case PrimaryKey:
		return "Duplicates of Primary key is not allowed"
	case Positive:
		return "Value is not positive or is NaN"
	case NonNegative:
		return "Value is negative or is NaN"
	case DateFormat:
		return "Invalid Date Format"
	case Computed:
		return "Value is not a multiple of quantity and unit price"
	case Enumeration:
		return "Invalid Status value"
	case ForeignKey:
		if r.Target == "products" {
			return "Product ID does not exist in Products table"
		}
		return fmt.Sprintf("Value does not exist in %s table", r.Target)
	default:
		return "Validation failed"
	}
}
