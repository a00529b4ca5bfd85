package core

// convert.go provides cell-level type inference for profiling and checks.
//
// These functions handle the messy reality of generated CSV data:
//   - pandas-style NA tokens ("NA", "null", "NaN", ...) count as nulls
//   - dates at day, month and timestamp granularity
//   - integers vs decimals (parsed exactly via pgtype.Numeric)
//
// Every parser reports ok=false instead of returning an error so callers
// can count unparseable cells without aborting.

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// naTokens are the cell values treated as null after trimming.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-nan": {}, "-NaN": {},
	"NULL": {}, "null": {}, "None": {}, "<NA>": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {},
	"1.#IND": {}, "-1.#IND": {}, "1.#QNAN": {}, "-1.#QNAN": {},
}

// IsNullCell reports whether a raw cell value represents a missing value.
func IsNullCell(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// numericRegex matches integers, decimals and exponent notation (1e-05,
// 2.5E+3). A decimal point or an exponent makes the value a float.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber parses a decimal cell. isInt is true when the text has neither
// a fractional part nor an exponent.
func ParseNumber(s string) (value float64, isInt bool, ok bool) {
	s = strings.TrimSpace(s)
	m := numericRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false, false
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil || !n.Valid {
		return 0, false, false
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0, false, false
	}
	isInt = !strings.Contains(m[1], ".") && m[3] == ""
	return f.Float64, isInt, true
}

// ParseBool accepts only true/false (any case), matching how pandas infers
// boolean columns.
func ParseBool(s string) (bool, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	default:
		return false, false
	}
}

// Granularity is the precision a date value was written with.
type Granularity int

const (
	GranularityInstant Granularity = iota
	GranularityDay
	GranularityMonth
)

type dateLayout struct {
	layout      string
	granularity Granularity
}

// dateLayouts are tried in order; ISO forms first since they are unambiguous.
var dateLayouts = []dateLayout{
	{"2006-01-02", GranularityDay},
	{"2006-01", GranularityMonth},
	{time.RFC3339Nano, GranularityInstant},
	{"2006-01-02T15:04:05", GranularityInstant},
	{"2006-01-02 15:04:05", GranularityInstant},
	{"2006-01-02T15:04:05.999999999", GranularityInstant},
	{"2006-01-02 15:04:05.999999999", GranularityInstant},
	{"2006/01/02", GranularityDay},
	{"1/2/2006", GranularityDay},
	{"01/02/2006", GranularityDay},
}

// ParseDate parses a date cell and reports the granularity it was written at.
// Month values resolve to the first day of the month.
func ParseDate(s string) (time.Time, Granularity, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 7 {
		return time.Time{}, 0, false
	}
	for _, dl := range dateLayouts {
		t, err := time.Parse(dl.layout, s)
		if err == nil {
			return t.UTC(), dl.granularity, true
		}
	}
	return time.Time{}, 0, false
}

// PeriodEnd returns the exclusive end of the period starting at t.
// A month bound covers the whole month and a day bound the whole day.
func PeriodEnd(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	case GranularityDay:
		return t.AddDate(0, 0, 1)
	default:
		return t.Add(time.Nanosecond)
	}
}

// ParseBoundDate parses a rule boundary, which may arrive from YAML as a
// string or an already decoded time.Time.
func ParseBoundDate(v any) (time.Time, Granularity, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, 0, false
	case time.Time:
		return val.UTC(), GranularityDay, !val.IsZero()
	case string:
		return ParseDate(val)
	default:
		return ParseDate(fmt.Sprint(val))
	}
}

// FormatDate renders a date for profiles and check results.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
