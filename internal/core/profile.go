package core

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxSampleValues is the number of distinct samples kept per column.
	MaxSampleValues = 5
	// MaxSampleChars bounds each sample value.
	MaxSampleChars = 120
	// DefaultWorkers is used when Profile is called with workers <= 0.
	DefaultWorkers = 4
)

// Profile loads and profiles every file concurrently with at most workers
// files in flight. Profiles come back in the order of files; tables holds
// the parsed content of each readable tabular file keyed by name.
//
// A file that fails to parse is reported on its profile and never returned
// as an error. Only context cancellation aborts the run.
func (s *Sandbox) Profile(ctx context.Context, files []FileInfo, workers int) ([]*FileProfile, map[string]*Table, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	profiles := make([]*FileProfile, len(files))
	loaded := make([]*Table, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profiles[i], loaded[i] = profileFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	tables := make(map[string]*Table, len(files))
	for i, t := range loaded {
		if t != nil {
			tables[files[i].Name] = t
		}
	}
	return profiles, tables, nil
}

// profileFile builds the profile for one scanned file. The table is nil for
// opaque and unparseable files.
func profileFile(f FileInfo) (*FileProfile, *Table) {
	if !f.IsTabular {
		return baseProfile(f), nil
	}

	start := time.Now()
	table, err := LoadTable(f.Path)
	if err != nil {
		slog.Warn("profile: unreadable tabular file",
			"file", f.Name,
			"error", err,
		)
		p := baseProfile(f)
		p.Error = ErrUnparseable.Error()
		if !errors.Is(err, ErrUnparseable) {
			p.Error = err.Error()
		}
		p.OverallMissingRatio = 1
		return p, nil
	}

	p := BuildFileProfile(f, table)
	slog.Debug("profile: file profiled",
		"file", f.Name,
		"rows", p.RowCount,
		"columns", p.ColumnCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return p, table
}

func baseProfile(f FileInfo) *FileProfile {
	return &FileProfile{
		FileName:       f.Name,
		SizeBytes:      f.SizeBytes,
		LastModified:   f.LastModified.UTC(),
		IsTabular:      f.IsTabular,
		ColumnNames:    []string{},
		ColumnProfiles: []ColumnProfile{},
	}
}

// BuildFileProfile combines scanner metadata with column statistics.
func BuildFileProfile(f FileInfo, t *Table) *FileProfile {
	p := baseProfile(f)
	p.Encoding = t.Encoding
	p.RowCount = t.RowCount()
	p.ColumnCount = len(t.Columns)
	p.ColumnNames = append(p.ColumnNames, t.Columns...)
	p.ColumnProfiles = ProfileTable(t)

	totalNulls := 0
	for _, c := range p.ColumnProfiles {
		totalNulls += c.NullCount
	}
	if cells := p.RowCount * p.ColumnCount; cells > 0 {
		p.OverallMissingRatio = Round6(float64(totalNulls) / float64(cells))
	}

	for _, c := range p.ColumnProfiles {
		if c.DType != DTypeDate {
			continue
		}
		if p.DateColumns == nil {
			p.DateColumns = make(map[string]DateBounds)
		}
		b := DateBounds{Min: c.Min.(string), Max: c.Max.(string)}
		p.DateColumns[c.Name] = b
		if p.GlobalDateMin == "" || b.Min < p.GlobalDateMin {
			p.GlobalDateMin = b.Min
		}
		if b.Max > p.GlobalDateMax {
			p.GlobalDateMax = b.Max
		}
	}
	return p
}

// ProfileTable computes statistics for every column of t, in column order.
func ProfileTable(t *Table) []ColumnProfile {
	profiles := make([]ColumnProfile, len(t.Columns))
	for i, name := range t.Columns {
		values, _ := t.ColumnValues(name)
		profiles[i] = profileColumn(name, values)
	}
	return profiles
}

func profileColumn(name string, values []*string) ColumnProfile {
	cp := ColumnProfile{
		Name:         name,
		DType:        DTypeEmpty,
		SampleValues: []string{},
	}

	seen := make(map[string]struct{})
	nonNull := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			cp.NullCount++
			continue
		}
		nonNull = append(nonNull, *v)
		if _, ok := seen[*v]; ok {
			continue
		}
		seen[*v] = struct{}{}
		if len(cp.SampleValues) < MaxSampleValues {
			cp.SampleValues = append(cp.SampleValues, truncateChars(*v, MaxSampleChars))
		}
	}
	cp.DistinctCount = len(seen)
	if len(values) > 0 {
		cp.NullRatio = Round6(float64(cp.NullCount) / float64(len(values)))
	}
	if len(nonNull) == 0 {
		return cp
	}

	if lo, hi, isInt, ok := numericBounds(nonNull); ok {
		if isInt && math.Abs(lo) < 1<<53 && math.Abs(hi) < 1<<53 {
			cp.DType = DTypeInteger
			cp.Min, cp.Max = int64(lo), int64(hi)
		} else {
			cp.DType = DTypeFloat
			cp.Min, cp.Max = lo, hi
		}
		return cp
	}
	if allBool(nonNull) {
		cp.DType = DTypeBoolean
		return cp
	}
	if lo, hi, ok := DateBoundsOf(nonNull); ok {
		cp.DType = DTypeDate
		cp.Min, cp.Max = FormatDate(lo), FormatDate(hi)
		return cp
	}
	cp.DType = DTypeString
	return cp
}

// numericBounds returns min and max when every value is numeric.
func numericBounds(values []string) (lo, hi float64, isInt, ok bool) {
	isInt = true
	for i, v := range values {
		f, vInt, parsed := ParseNumber(v)
		if !parsed {
			return 0, 0, false, false
		}
		isInt = isInt && vInt
		if i == 0 || f < lo {
			lo = f
		}
		if i == 0 || f > hi {
			hi = f
		}
	}
	return lo, hi, isInt, len(values) > 0
}

func allBool(values []string) bool {
	for _, v := range values {
		if _, ok := ParseBool(v); !ok {
			return false
		}
	}
	return len(values) > 0
}

// DateBoundsOf returns the earliest and latest date when every value parses
// as a date. Month values count as the first day of the month.
func DateBoundsOf(values []string) (lo, hi time.Time, ok bool) {
	for i, v := range values {
		t, _, parsed := ParseDate(v)
		if !parsed {
			return time.Time{}, time.Time{}, false
		}
		if i == 0 || t.Before(lo) {
			lo = t
		}
		if i == 0 || t.After(hi) {
			hi = t
		}
	}
	return lo, hi, len(values) > 0
}

// ParseableDates returns the dates among values that parse, sorted.
func ParseableDates(values []*string) []time.Time {
	var out []time.Time
	for _, v := range values {
		if v == nil {
			continue
		}
		if t, _, ok := ParseDate(*v); ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func Round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

// truncateChars cuts s to at most n characters.
func truncateChars(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
