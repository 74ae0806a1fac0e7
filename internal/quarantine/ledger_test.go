package quarantine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curator-io/curator/internal/table"
)

func newAnnotation(id string, sev Severity) Annotation {
	return Annotation{
		Columns:   []string{"order_id", "quantity"},
		Record:    []table.Value{table.String(id), table.Int(-2)},
		ErrColumn: "quantity",
		ErrType:   "Value is not positive or is NaN",
		Severity:  sev,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLedger_CommitAndCounts(t *testing.T) {
	l := NewLedger()
	assert.True(t, l.IsEmpty("orders"))
	assert.Equal(t, 0, l.Total())

	l.Commit("products", nil)
	l.Commit("orders", []Annotation{newAnnotation("O1", SeverityError)})
	l.Commit("orders", []Annotation{newAnnotation("O2", SeverityWarning)})

	assert.Equal(t, []string{"products", "orders"}, l.Datasets(), "commit order is preserved")
	assert.True(t, l.IsEmpty("products"))
	assert.False(t, l.IsEmpty("orders"))
	assert.Equal(t, 2, l.Count("orders"))
	assert.Equal(t, 2, l.Total())
}

func TestLedger_Export(t *testing.T) {
	l := NewLedger()
	l.Commit("orders", []Annotation{newAnnotation("O1", SeverityError)})

	header, rows := l.Export("orders", []string{"order_id", "quantity"})

	assert.Equal(t, []string{"order_id", "quantity", "error_column", "error_type", "severity"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"O1", "-2", "quantity", "Value is not positive or is NaN", "error"}, rows[0])
}

func TestLedger_ExportColumnSubsetAndUnknown(t *testing.T) {
	l := NewLedger()
	l.Commit("orders", []Annotation{newAnnotation("O1", SeverityWarning)})

	header, rows := l.Export("orders", []string{"quantity", "missing"})

	assert.Equal(t, []string{"quantity", "missing", "error_column", "error_type", "severity"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, "-2", rows[0][0])
	assert.Equal(t, "", rows[0][1], "columns absent from the snapshot render empty")
	assert.Equal(t, "warning", rows[0][4])
}

func TestLedger_ExportEmptyDatasetKeepsHeader(t *testing.T) {
	l := NewLedger()
	header, rows := l.Export("orders", []string{"order_id"})

	assert.Equal(t, []string{"order_id", "error_column", "error_type", "severity"}, header)
	assert.Empty(t, rows)
}

func TestAnnotation_Key(t *testing.T) {
	a := newAnnotation("O1", SeverityError)
	b := newAnnotation("O1", SeverityWarning)
	c := newAnnotation("O2", SeverityError)

	assert.Equal(t, a.Key(), b.Key(), "severity is not part of the identity")
	assert.NotEqual(t, a.Key(), c.Key())
}
