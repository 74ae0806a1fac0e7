package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadCSV_TypedCells(t *testing.T) {
	path := writeFile(t, t.TempDir(), "orders.csv",
		"order_id,quantity,unit_price,note\n"+
			"O1,3,19.99,first\n"+
			"O2,3.0,bad,\n"+
			"O3,,0.5,x\n")

	schema := Schema{"order_id": KindString, "quantity": KindInt, "unit_price": KindFloat}
	tbl, err := ReadCSV(path, "orders", schema)
	require.NoError(t, err)

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, KindString, tbl.Get(0, "note").Kind(), "columns outside the schema load as strings")

	assert.Equal(t, int64(3), tbl.Get(0, "quantity").IntVal())
	assert.Equal(t, 19.99, tbl.Get(0, "unit_price").FloatVal())

	assert.Equal(t, int64(3), tbl.Get(1, "quantity").IntVal(), "whole-valued floats load as ints")
	assert.True(t, tbl.Get(1, "unit_price").IsNull(), "unparsable cells load as null")

	assert.True(t, tbl.Get(2, "quantity").IsNull(), "blank cells load as null")
	assert.True(t, tbl.Get(1, "note").IsNull())
}

func TestReadCSV_ShortRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "short.csv",
		"a,b,c\n1,2\n")

	tbl, err := ReadCSV(path, "short", Schema{"a": KindInt, "b": KindInt, "c": KindInt})
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.True(t, tbl.Get(0, "c").IsNull(), "missing trailing cells load as null")
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"), "x", nil)
	assert.Error(t, err)
}

func TestReadCSV_EmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.csv", "")
	_, err := ReadCSV(path, "x", nil)
	assert.Error(t, err, "a file without a header is malformed")
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := New("orders", []Column{
		{Name: "order_id", Kind: KindString},
		{Name: "quantity", Kind: KindInt},
		{Name: "unit_price", Kind: KindFloat},
	})
	src.Rows = append(src.Rows,
		[]Value{String("O1"), Int(2), Float(10.5)},
		[]Value{String("O2"), Null(), Float(3)},
	)

	path := filepath.Join(dir, "out", "clean_orders.csv")
	require.NoError(t, WriteCSV(src, path))

	got, rerr := ReadCSV(path, "orders", Schema{
		"order_id": KindString, "quantity": KindInt, "unit_price": KindFloat,
	})
	require.NoError(t, rerr)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "O1", got.Get(0, "order_id").Str())
	assert.Equal(t, 10.5, got.Get(0, "unit_price").FloatVal())
	assert.True(t, got.Get(1, "quantity").IsNull(), "nulls round-trip as blanks")
}

func TestWriteRowsCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders_error_records.csv")
	require.NoError(t, WriteRowsCSV(path, []string{"a", "b"}, nil))

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, "a,b\n", string(data))
}

func TestWriteCSV_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0600))

	tbl := New("t", []Column{{Name: "a", Kind: KindString}})
	tbl.Rows = append(tbl.Rows, []Value{String("fresh")})
	require.NoError(t, WriteCSV(tbl, path))

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, "a\nfresh\n", string(data))

	entries, derr := os.ReadDir(dir)
	require.NoError(t, derr)
	assert.Len(t, entries, 1, "no temp files left behind")
}
