package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrUnparseable is returned when a tabular file cannot be read as
// delimited text.
var ErrUnparseable = errors.New("unable to parse")

// LoadTable reads a delimited file fully into memory. The delimiter is
// chosen by extension.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseTable(data, delimiterFor(path))
}

// ParseTable parses delimited text. The first record is the header; blank
// lines are skipped, short rows are padded with nulls and null tokens
// become nil cells. An input with no records yields an empty table.
func ParseTable(data []byte, delim rune) (*Table, error) {
	text, encoding := DecodeText(data)

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return &Table{Encoding: encoding}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrUnparseable, err)
	}

	table := &Table{
		Columns:  dedupeHeader(header),
		Encoding: encoding,
	}
	width := len(table.Columns)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
		if len(record) > width {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d", ErrUnparseable, line, len(record), width)
		}

		row := make([]*string, width)
		for i, cell := range record {
			if IsNullCell(cell) {
				continue
			}
			v := cell
			row[i] = &v
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// dedupeHeader names blank columns by position and suffixes repeated names
// with .1, .2, ... so every column can be addressed by name.
func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	next := make(map[string]int)
	for i, h := range header {
		name := h
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if used[name] {
			base := name
			n := max(next[base], 1)
			for used[base+"."+strconv.Itoa(n)] {
				n++
			}
			name = base + "." + strconv.Itoa(n)
			next[base] = n + 1
		}
		used[name] = true
		out[i] = name
	}
	return out
}
