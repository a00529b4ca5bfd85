package checks

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/rules"
)

const (
	defaultMinRows = 0
	defaultMaxRows = 1e12
)

func checkExists(def rules.Definition, in Input) Result {
	if !in.File.Present() {
		return fail(false, true, fmt.Sprintf("file missing: %s", in.File.Name))
	}
	return pass(true, true, fmt.Sprintf("%s exists", in.File.Name))
}

func checkRowCount(def rules.Definition, in Input) Result {
	minRows := def.FloatOr(defaultMinRows, "min")
	maxRows := def.FloatOr(defaultMaxRows, "max")
	expected := map[string]any{"min": wholeNumber(minRows), "max": wholeNumber(maxRows)}

	t, bad := requireTable(in.File, expected)
	if bad != nil {
		return *bad
	}

	rows := t.RowCount()
	ok := float64(rows) >= minRows && float64(rows) <= maxRows
	return verdict(ok, rows, expected, fmt.Sprintf("rows=%d", rows))
}

func checkRequiredColumns(def rules.Definition, in Input) Result {
	required := def.Strings("columns")
	expected := required
	if expected == nil {
		expected = []string{}
	}

	t, bad := requireTable(in.File, expected)
	if bad != nil {
		return *bad
	}

	missing := []string{}
	for _, c := range required {
		if t.ColumnIndex(c) < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return pass(map[string]any{"missing": missing}, expected, "required columns present")
	}
	return fail(map[string]any{"missing": missing}, expected,
		fmt.Sprintf("missing %d required columns: %s", len(missing), strings.Join(missing, ", ")))
}

// checkRequiredValues requires every listed value to occur in the column.
// With min_ratio set, each value must also cover at least that fraction of
// rows.
func checkRequiredValues(def rules.Definition, in Input) Result {
	column := def.String("column")
	values := def.Strings("values")
	minRatio, hasRatio := def.Float("min_ratio")
	expected := map[string]any{"values": values}
	if hasRatio {
		expected["min_ratio"] = minRatio
	}

	t, bad := requireTable(in.File, expected)
	if bad != nil {
		return *bad
	}
	cells, bad := requireColumn(t, column, expected)
	if bad != nil {
		return *bad
	}
	if len(cells) == 0 {
		return warn(0, expected, "empty table")
	}

	ratios := make(map[string]float64, len(values))
	var gaps []string
	covered := 1.0
	for _, v := range values {
		hits := 0
		for _, c := range cells {
			if c != nil && sameValue(*c, v) {
				hits++
			}
		}
		ratio := core.Round6(float64(hits) / float64(len(cells)))
		ratios[v] = ratio
		covered = math.Min(covered, ratio)

		if hits == 0 || (hasRatio && ratio < minRatio) {
			gaps = append(gaps, v)
		}
	}

	observed := map[string]any{"values": ratios, "covered_ratio_min": covered}
	if len(gaps) > 0 {
		return fail(observed, expected, fmt.Sprintf("coverage gaps: %s", strings.Join(gaps, ", ")))
	}
	return pass(observed, expected, "values present")
}

// sameValue compares a cell to a configured value as text, falling back to
// numeric equality so 2 matches "2.0".
func sameValue(cell, want string) bool {
	cell, want = strings.TrimSpace(cell), strings.TrimSpace(want)
	if cell == want {
		return true
	}
	a, _, okA := core.ParseNumber(cell)
	b, _, okB := core.ParseNumber(want)
	return okA && okB && a == b
}

// checkDateRange requires every parseable date in the column to fall inside
// [min, max]. A bound written as YYYY-MM covers the whole month.
func checkDateRange(def rules.Definition, in Input) Result {
	column := def.String("column")
	rawMin, _ := def.Value("min", "start")
	rawMax, _ := def.Value("max", "end")

	lo, _, okLo := core.ParseBoundDate(rawMin)
	hi, hiGran, okHi := core.ParseBoundDate(rawMax)
	if !okLo || !okHi {
		return warn(nil, map[string]any{"min": rawMin, "max": rawMax}, "invalid expected date boundary")
	}
	expected := map[string]any{"min": declaredDate(rawMin), "max": declaredDate(rawMax)}

	t, bad := requireTable(in.File, expected)
	if bad != nil {
		return *bad
	}
	cells, bad := requireColumn(t, column, expected)
	if bad != nil {
		return *bad
	}

	dates := core.ParseableDates(cells)
	if len(dates) == 0 {
		return fail(nil, expected, fmt.Sprintf("no detectable date column %s", column))
	}
	obsMin, obsMax := dates[0], dates[len(dates)-1]
	observed := map[string]any{"min": core.FormatDate(obsMin), "max": core.FormatDate(obsMax)}

	ok := !obsMin.Before(lo) && obsMax.Before(core.PeriodEnd(hi, hiGran))
	details := fmt.Sprintf("[%s, %s] in expected range", obsMin.Format(time.DateOnly), obsMax.Format(time.DateOnly))
	if !ok {
		details = fmt.Sprintf("[%s, %s] outside expected range [%s, %s]",
			obsMin.Format(time.DateOnly), obsMax.Format(time.DateOnly),
			lo.Format(time.DateOnly), hi.Format(time.DateOnly))
	}
	return verdict(ok, observed, expected, details)
}

// checkNumericRange requires every non-null value to be numeric and inside
// the configured bounds. Either bound may be omitted.
func checkNumericRange(def rules.Definition, in Input) Result {
	column := def.String("column")
	rawMin, hasMin := def.Value("min")
	rawMax, hasMax := def.Value("max")
	expected := map[string]any{"min": rawMin, "max": rawMax}

	lo, okLo := def.Float("min")
	hi, okHi := def.Float("max")
	if (hasMin && !okLo) || (hasMax && !okHi) {
		return warn(nil, expected, "invalid expected numeric boundary")
	}

	t, bad := requireTable(in.File, expected)
	if bad != nil {
		return *bad
	}
	cells, bad := requireColumn(t, column, expected)
	if bad != nil {
		return *bad
	}

	var (
		obsMin, obsMax float64
		numeric        int
		nonNumeric     []string
	)
	for _, c := range cells {
		if c == nil {
			continue
		}
		f, _, ok := core.ParseNumber(*c)
		if !ok {
			if len(nonNumeric) < 5 {
				nonNumeric = append(nonNumeric, *c)
			}
			continue
		}
		if numeric == 0 || f < obsMin {
			obsMin = f
		}
		if numeric == 0 || f > obsMax {
			obsMax = f
		}
		numeric++
	}

	if numeric == 0 {
		return fail(nil, expected, fmt.Sprintf("no numeric values in %s", column))
	}
	observed := map[string]any{"min": obsMin, "max": obsMax}
	if len(nonNumeric) > 0 {
		return fail(observed, expected, fmt.Sprintf("non-numeric values in %s: %s", column, strings.Join(nonNumeric, ", ")))
	}

	ok := (!hasMin || obsMin >= lo) && (!hasMax || obsMax <= hi)
	details := fmt.Sprintf("%s min/max observed", column)
	if !ok {
		details = fmt.Sprintf("%s outside expected range", column)
	}
	return verdict(ok, observed, expected, details)
}

func checkMinNonNullRatio(def rules.Definition, in Input) Result {
	column := def.String("column")
	minRatio := def.FloatOr(1.0, "min_ratio")

	t, bad := requireTable(in.File, minRatio)
	if bad != nil {
		return *bad
	}
	cells, bad := requireColumn(t, column, minRatio)
	if bad != nil {
		return *bad
	}
	if len(cells) == 0 {
		return warn(0.0, minRatio, "empty table")
	}

	// The profile already counted this column's nulls.
	profile, _ := in.File.Profile.Column(column)
	ratio := core.Round6(1 - profile.NullRatio)
	return verdict(ratio >= minRatio, ratio, minRatio, fmt.Sprintf("%s non-null ratio", column))
}

// wholeNumber renders integral bounds as integers in JSON.
func wholeNumber(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// declaredDate renders a date bound the way the rule wrote it. YAML may
// already have decoded it into a time.Time.
func declaredDate(v any) string {
	if t, ok := v.(time.Time); ok {
		return core.FormatDate(t.UTC())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
