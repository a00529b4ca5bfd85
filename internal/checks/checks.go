// Package checks evaluates rule definitions against profiled files.
//
// Check types form a closed set. Each type maps to a stateless [Handler]
// in a static table, so the evaluator holds no check-specific logic and
// every handler can be tested with literal fixtures. Handlers never return
// errors: a missing file, a missing column or malformed data becomes a
// fail or warn [Result].
package checks

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/rules"
)

// Status is the verdict of one check.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Result is the outcome of evaluating one definition.
type Result struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	File     string `json:"file"`
	Status   Status `json:"status"`
	Details  string `json:"details"`
	Observed any    `json:"observed"`
	Expected any    `json:"expected"`
}

// FileContext is what a handler knows about one referenced file.
// Profile is nil when the file was not found by the scan; Table is nil for
// opaque and unparseable files.
type FileContext struct {
	Name    string
	Profile *core.FileProfile
	Table   *core.Table
}

// Present reports whether the scan found the file.
func (f FileContext) Present() bool {
	return f.Profile != nil
}

// Input is everything a handler may consult. Source and Target are only
// populated for rules that name them.
type Input struct {
	File   FileContext
	Source FileContext
	Target FileContext
}

// Handler evaluates one definition. It must return a Result for every input.
type Handler func(def rules.Definition, in Input) Result

// Corpus is the profiled view of the data root for one scan.
type Corpus struct {
	profiles map[string]*core.FileProfile
	tables   map[string]*core.Table
}

// NewCorpus indexes profiles by file name. tables may be nil.
func NewCorpus(profiles []*core.FileProfile, tables map[string]*core.Table) *Corpus {
	c := &Corpus{
		profiles: make(map[string]*core.FileProfile, len(profiles)),
		tables:   tables,
	}
	for _, p := range profiles {
		c.profiles[p.FileName] = p
	}
	return c
}

// File returns the context for name. Unknown names yield a context with no
// profile.
func (c *Corpus) File(name string) FileContext {
	fc := FileContext{Name: name}
	if c == nil || name == "" {
		return fc
	}
	fc.Profile = c.profiles[name]
	fc.Table = c.tables[name]
	return fc
}

// handlers is the closed set of supported check types.
var handlers = map[string]Handler{
	"exists":                checkExists,
	"row_count_between":     checkRowCount,
	"required_columns":      checkRequiredColumns,
	"required_values":       checkRequiredValues,
	"date_range":            checkDateRange,
	"numeric_range":         checkNumericRange,
	"min_non_null_ratio":    checkMinNonNullRatio,
	"foreign_key_reference": checkForeignKey,
}

// Types returns the supported check types, sorted.
func Types() []string {
	types := make([]string, 0, len(handlers))
	for t := range handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Supported reports whether checkType has a handler.
func Supported(checkType string) bool {
	_, ok := handlers[checkType]
	return ok
}

// Evaluate runs one definition against the corpus. It always returns exactly
// one Result carrying the definition's id.
func Evaluate(def rules.Definition, corpus *Corpus) (res Result) {
	file := resultFile(def)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("check handler panicked",
				"check_id", def.ID,
				"type", def.Type,
				"panic", r,
			)
			res = Result{Status: StatusFail, Details: fmt.Sprintf("internal error: %v", r)}
			stamp(&res, def, file)
		}
	}()

	handler, ok := handlers[def.Type]
	if !ok {
		res = Result{
			Status:  StatusWarn,
			Details: fmt.Sprintf("unsupported check type: %s", def.Type),
		}
		stamp(&res, def, file)
		return res
	}

	in := Input{File: corpus.File(def.File)}
	if def.Scope == rules.ScopeCross || def.Has("source_file", "target_file") {
		in.Source = corpus.File(def.String("source_file"))
		in.Target = corpus.File(def.String("target_file"))
	}

	res = handler(def, in)
	stamp(&res, def, file)
	return res
}

// EvaluateAll evaluates per-file rules and then cross-file rules.
func EvaluateAll(set *rules.Set, corpus *Corpus) []Result {
	defs := set.All()
	results := make([]Result, 0, len(defs))
	for _, def := range defs {
		results = append(results, Evaluate(def, corpus))
	}
	return results
}

// resultFile is the file a result is reported under: the rule's own file,
// or the target of a cross-file rule.
func resultFile(def rules.Definition) string {
	if def.File != "" {
		return def.File
	}
	return def.String("target_file")
}

func stamp(res *Result, def rules.Definition, file string) {
	res.ID = def.ID
	res.Title = def.Title
	res.Type = def.Type
	res.File = file
}

func pass(observed, expected any, details string) Result {
	return Result{Status: StatusPass, Observed: observed, Expected: expected, Details: details}
}

func warn(observed, expected any, details string) Result {
	return Result{Status: StatusWarn, Observed: observed, Expected: expected, Details: details}
}

func fail(observed, expected any, details string) Result {
	return Result{Status: StatusFail, Observed: observed, Expected: expected, Details: details}
}

func verdict(ok bool, observed, expected any, details string) Result {
	if ok {
		return pass(observed, expected, details)
	}
	return fail(observed, expected, details)
}

// requireTable returns the parsed table of f, or a fail Result describing
// why it is unavailable.
func requireTable(f FileContext, expected any) (*core.Table, *Result) {
	switch {
	case !f.Present():
		r := fail(nil, expected, fmt.Sprintf("file missing: %s", f.Name))
		return nil, &r
	case !f.Profile.IsTabular:
		r := fail(nil, expected, fmt.Sprintf("not a tabular file: %s", f.Name))
		return nil, &r
	case !f.Profile.Readable() || f.Table == nil:
		r := fail(nil, expected, fmt.Sprintf("file unreadable: %s", f.Name))
		return nil, &r
	}
	return f.Table, nil
}

// requireColumn returns the values of column, or a fail Result.
func requireColumn(t *core.Table, column string, expected any) ([]*string, *Result) {
	if column == "" {
		r := warn(nil, expected, "no column configured")
		return nil, &r
	}
	values, ok := t.ColumnValues(column)
	if !ok {
		r := fail(nil, expected, fmt.Sprintf("column %s missing", column))
		return nil, &r
	}
	return values, nil
}
