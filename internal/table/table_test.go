package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"string", KindString},
		{"int", KindInt},
		{"float", KindFloat},
		{"date", KindDate},
	}
	for _, tt := range tests {
		k, err := ParseKind(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, k)
	}

	_, err := ParseKind("decimal")
	assert.Error(t, err)
}

func TestValue_Format(t *testing.T) {
	assert.Equal(t, "", Null().Format())
	assert.Equal(t, "ORD-1", String("ORD-1").Format())
	assert.Equal(t, "42", Int(42).Format())
	assert.Equal(t, "19.99", Float(19.99).Format())

	d := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "15-01-2024", Date(d).Format())
}

func TestValue_FloatValWidensInt(t *testing.T) {
	assert.Equal(t, 3.0, Int(3).FloatVal())
	assert.Equal(t, 2.5, Float(2.5).FloatVal())
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Null().Equal(Null()))
	assert.True(t, String("a").Equal(String("a")))
	assert.False(t, String("a").Equal(String("b")))
	assert.False(t, Int(1).Equal(Float(1)))
	d := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.True(t, Date(d).Equal(Date(d)))
}

func newTestTable() *Table {
	t := New("orders", []Column{
		{Name: "order_id", Kind: KindString},
		{Name: "quantity", Kind: KindInt},
	})
	t.Rows = append(t.Rows,
		[]Value{String("O1"), Int(2)},
		[]Value{String("O2"), Int(5)},
	)
	return t
}

func TestTable_ColumnLookups(t *testing.T) {
	tbl := newTestTable()

	assert.Equal(t, 0, tbl.ColumnIndex("order_id"))
	assert.Equal(t, -1, tbl.ColumnIndex("missing"))
	assert.True(t, tbl.HasColumn("quantity"))
	assert.Equal(t, []string{"order_id", "quantity"}, tbl.ColumnNames())
	assert.Equal(t, 2, tbl.Len())
	assert.False(t, tbl.IsEmpty())
}

func TestTable_GetSet(t *testing.T) {
	tbl := newTestTable()

	assert.Equal(t, "O2", tbl.Get(1, "order_id").Str())
	tbl.Set(0, "quantity", Int(9))
	assert.Equal(t, int64(9), tbl.Get(0, "quantity").IntVal())

	// Unknown columns read as null and writes are ignored.
	assert.True(t, tbl.Get(0, "missing").IsNull())
}

func TestTable_CloneEmptyAndCopyRow(t *testing.T) {
	tbl := newTestTable()
	clone := tbl.CloneEmpty()

	assert.Equal(t, tbl.Name, clone.Name)
	assert.Equal(t, tbl.ColumnNames(), clone.ColumnNames())
	assert.True(t, clone.IsEmpty())

	row := tbl.CopyRow(0)
	row[1] = Int(100)
	assert.Equal(t, int64(2), tbl.Get(0, "quantity").IntVal(), "copy must not alias the source row")
}

func TestTable_Filter(t *testing.T) {
	tbl := newTestTable()
	kept := tbl.Filter(func(row int) bool {
		return tbl.Get(row, "quantity").IntVal() > 3
	})

	require.Equal(t, 1, kept.Len())
	assert.Equal(t, "O2", kept.Get(0, "order_id").Str())
	assert.Equal(t, 2, tbl.Len(), "source table unchanged")
}

func TestFingerprint(t *testing.T) {
	a := []Value{String("O1"), Int(2)}
	b := []Value{String("O1"), Int(2)}
	c := []Value{String("O1"), Float(2)}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c), "kind participates in identity")
}
