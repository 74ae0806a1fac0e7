// Package quarantine provides the error ledger for one pipeline run.
// Records that fail or are repaired during validation are diverted here as
// annotated snapshots; the ledger is an append-only audit trail read only
// for reporting. It does not outlive the run.
package quarantine

import (
	"time"

	"github.com/curator-io/curator/internal/table"
)

// Severity classifies an annotation.
type Severity string

const (
	// SeverityError marks a record that was rejected from the working set.
	SeverityError Severity = "error"
	// SeverityWarning marks a record that was repaired in place and kept.
	SeverityWarning Severity = "warning"
)

// Annotation is a snapshot of a record at the moment a rule failed,
// together with the offending column and a human-readable error type.
type Annotation struct {
	Columns   []string
	Record    []table.Value
	ErrColumn string
	ErrType   string
	Severity  Severity
	Timestamp time.Time
}

// Key returns the deduplication identity of the annotation: identical
// column, error type and record content collapse to one entry.
func (a Annotation) Key() string {
	return a.ErrColumn + "\x1f" + a.ErrType + "\x1f" + table.Fingerprint(a.Record)
}

// Ledger accumulates annotations per dataset key (e.g. "orders",
// "products"). Committed annotations are never removed.
type Ledger struct {
	keys    []string
	entries map[string][]Annotation
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string][]Annotation)}
}

// Commit appends annotations under the given dataset key.
func (l *Ledger) Commit(dataset string, anns []Annotation) {
	if _, ok := l.entries[dataset]; !ok {
		l.keys = append(l.keys, dataset)
		l.entries[dataset] = nil
	}
	l.entries[dataset] = append(l.entries[dataset], anns...)
}

// Datasets returns the dataset keys in commit order.
func (l *Ledger) Datasets() []string {
	out := make([]string, len(l.keys))
	copy(out, l.keys)
	return out
}

// IsEmpty reports whether no annotations exist for the dataset.
func (l *Ledger) IsEmpty(dataset string) bool { return len(l.entries[dataset]) == 0 }

// Count returns the number of annotations for the dataset.
func (l *Ledger) Count(dataset string) int { return len(l.entries[dataset]) }

// Total returns the number of annotations across all datasets.
func (l *Ledger) Total() int {
	n := 0
	for _, anns := range l.entries {
		n += len(anns)
	}
	return n
}

// Export renders the dataset's annotations as ordered rows for
// persistence: the original record columns followed by error_column,
// error_type and severity. The header is returned alongside the rows and
// is present even when no annotations exist, so a clean run still yields
// an explicit "no errors" artifact.
func (l *Ledger) Export(dataset string, columns []string) (header []string, rows [][]string) {
	header = append(append([]string{}, columns...), "error_column", "error_type", "severity")

	for _, a := range l.entries[dataset] {
		row := make([]string, 0, len(header))
		for _, col := range columns {
			row = append(row, cellFor(a, col))
		}
		row = append(row, a.ErrColumn, a.ErrType, string(a.Severity))
		rows = append(rows, row)
	}
	return header, rows
}

func cellFor(a Annotation, col string) string {
	for i, c := range a.Columns {
		if c == col && i < len(a.Record) {
			return a.Record[i].Format()
		}
	}
	return ""
}
