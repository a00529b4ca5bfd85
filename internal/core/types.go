package core

import "time"

// DType is the inferred type of a column.
type DType string

const (
	DTypeEmpty   DType = "empty"
	DTypeInteger DType = "integer"
	DTypeFloat   DType = "float"
	DTypeBoolean DType = "boolean"
	DTypeDate    DType = "date"
	DTypeString  DType = "string"
)

// ColumnProfile holds statistics for one column of a tabular file.
type ColumnProfile struct {
	Name          string   `json:"name"`
	DType         DType    `json:"dtype"`
	NullCount     int      `json:"null_count"`
	NullRatio     float64  `json:"null_ratio"`
	DistinctCount int      `json:"distinct_count"`
	Min           any      `json:"min,omitempty"`
	Max           any      `json:"max,omitempty"`
	SampleValues  []string `json:"sample_values"`
}

// DateBounds is the observed range of a date column, formatted as YYYY-MM-DD.
type DateBounds struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// FileInfo is what the scanner records for every file under the data root.
type FileInfo struct {
	Name         string // slash-separated, relative to the data root
	Path         string // absolute path
	SizeBytes    int64
	LastModified time.Time
	IsTabular    bool
}

// FileProfile is the profiling snapshot for one file.
// Opaque files only carry the scanner fields.
type FileProfile struct {
	FileName            string                `json:"file_name"`
	SizeBytes           int64                 `json:"size_bytes"`
	LastModified        time.Time             `json:"last_modified"`
	IsTabular           bool                  `json:"is_tabular"`
	Encoding            string                `json:"encoding,omitempty"`
	RowCount            int                   `json:"row_count"`
	ColumnCount         int                   `json:"column_count"`
	ColumnNames         []string              `json:"column_names"`
	ColumnProfiles      []ColumnProfile       `json:"column_profiles"`
	OverallMissingRatio float64               `json:"overall_missing_ratio"`
	DateColumns         map[string]DateBounds `json:"date_columns,omitempty"`
	GlobalDateMin       string                `json:"global_date_min,omitempty"`
	GlobalDateMax       string                `json:"global_date_max,omitempty"`
	Error               string                `json:"error,omitempty"`
}

// Readable reports whether the profile describes a successfully parsed table.
func (p *FileProfile) Readable() bool {
	return p != nil && p.IsTabular && p.Error == ""
}

// Column returns the profile of the named column.
func (p *FileProfile) Column(name string) (ColumnProfile, bool) {
	if p == nil {
		return ColumnProfile{}, false
	}
	for _, c := range p.ColumnProfiles {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// Table is a fully materialized delimited file. Null cells are nil.
type Table struct {
	Columns  []string
	Rows     [][]*string
	Encoding string
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ColumnValues returns the cells of one column in row order.
// The second result is false when the column does not exist.
func (t *Table) ColumnValues(name string) ([]*string, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]*string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, true
}

// PreviewResponse is the bounded sample returned for one file.
// For opaque files Columns is ["text"] and PreviewRows holds one string.
type PreviewResponse struct {
	FileName    string   `json:"file_name"`
	Rows        int      `json:"rows"`
	Columns     []string `json:"columns"`
	PreviewRows []any    `json:"preview_rows"`
}
