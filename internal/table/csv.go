package table

// csv.go - CSV loading and persistence for record sets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Schema maps column names to their declared scalar kinds. Columns
// appearing in the file but not in the schema load as strings.
type Schema map[string]Kind

// ReadCSV reads a row-oriented CSV file into a table. The first record is
// the header; cell kinds come from the schema. Blank cells and cells that
// do not parse as their declared kind load as null so that column rules
// can account for them.
func ReadCSV(path, name string, schema Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	cols := make([]Column, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		kind, ok := schema[h]
		if !ok {
			kind = KindString
		}
		cols[i] = Column{Name: h, Kind: kind}
	}

	t := New(name, cols)
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}

		row := make([]Value, len(cols))
		for i := range cols {
			if i < len(record) {
				row[i] = parseCell(record[i], cols[i].Kind)
			} else {
				row[i] = Null()
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// parseCell converts a raw CSV cell into a typed value.
func parseCell(raw string, kind Kind) Value {
	if strings.TrimSpace(raw) == "" {
		return Null()
	}
	switch kind {
	case KindInt:
		if i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			return Int(i)
		}
		// Whole-valued floats ("3.0") still count as integers.
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && f == float64(int64(f)) {
			return Int(int64(f))
		}
		return Null()
	case KindFloat:
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return Float(f)
		}
		return Null()
	default:
		return String(raw)
	}
}

// WriteCSV persists the table with atomic replace-on-write semantics:
// content is written to a temp file in the target directory and renamed
// into place, so readers never observe a partially written artifact.
func WriteCSV(t *Table, path string) error {
	return writeCSVRows(path, t.ColumnNames(), func(w *csv.Writer) error {
		for _, row := range t.Rows {
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = v.Format()
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteRowsCSV persists pre-formatted rows under the given header, with the
// same atomic replace semantics as WriteCSV.
func WriteRowsCSV(path string, header []string, rows [][]string) error {
	return writeCSVRows(path, header, func(w *csv.Writer) error {
		for _, row := range rows {
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSVRows(path string, header []string, body func(*csv.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(header)
	if writeErr == nil {
		writeErr = body(w)
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", path, writeErr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
