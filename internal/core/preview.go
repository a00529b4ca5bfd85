package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

const (
	MinPreviewRows     = 1
	MaxPreviewRows     = 200
	DefaultPreviewRows = 20

	// opaquePreviewBytes bounds the text sample of a non-tabular file.
	opaquePreviewBytes = 1024
)

// Record is one preview row. It marshals as a JSON object whose keys keep
// the file's column order; null cells become JSON null.
type Record struct {
	keys   []string
	values []*string
}

// Get returns the cell for column key. ok is false when the column does not
// exist; a nil value with ok true is a null cell.
func (r Record) Get(key string) (value *string, ok bool) {
	for i, k := range r.keys {
		if k == key {
			return r.values[i], true
		}
	}
	return nil, false
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		vb, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ValidatePreviewRows checks the requested row count.
func ValidatePreviewRows(rows int) error {
	if rows < MinPreviewRows || rows > MaxPreviewRows {
		return fmt.Errorf("%w: rows must be between %d and %d, got %d",
			ErrInvalidParameter, MinPreviewRows, MaxPreviewRows, rows)
	}
	return nil
}

// Preview returns a bounded sample of one file. The row count is validated
// and the reference resolved before any file content is read.
func (s *Sandbox) Preview(ref string, rows int) (*PreviewResponse, error) {
	if err := ValidatePreviewRows(rows); err != nil {
		return nil, err
	}
	path, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	name, err := s.RelName(path)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", ref, err)
	}

	if !IsTabularName(path) {
		return previewOpaque(name, path)
	}

	table, err := LoadTable(path)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", name, err)
	}

	n := min(rows, table.RowCount())
	records := make([]any, n)
	for i := 0; i < n; i++ {
		records[i] = Record{keys: table.Columns, values: table.Rows[i]}
	}

	columns := table.Columns
	if columns == nil {
		columns = []string{}
	}
	return &PreviewResponse{
		FileName:    name,
		Rows:        table.RowCount(),
		Columns:     columns,
		PreviewRows: records,
	}, nil
}

// previewOpaque reports the line count and the leading bytes as text.
func previewOpaque(name, path string) (*PreviewResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", name, err)
	}
	text, _ := DecodeText(data)

	return &PreviewResponse{
		FileName:    name,
		Rows:        countLines(text),
		Columns:     []string{"text"},
		PreviewRows: []any{truncateRunes(string(text), opaquePreviewBytes)},
	}, nil
}

// countLines counts lines the way a line iterator would: a trailing line
// without a newline still counts.
func countLines(text []byte) int {
	if len(text) == 0 {
		return 0
	}
	n := bytes.Count(text, []byte{'\n'})
	if text[len(text)-1] != '\n' {
		n++
	}
	return n
}
