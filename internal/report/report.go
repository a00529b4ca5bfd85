// Package report runs a full dashboard scan: it enumerates and profiles the
// data root, evaluates the rule document against the profiles and folds the
// verdicts into one summary.
//
// Nothing is cached between builds; every call reflects the data root as it
// is at that moment.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/rawready/internal/checks"
	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/logging"
	"github.com/JonMunkholm/rawready/internal/metrics"
	"github.com/JonMunkholm/rawready/internal/rules"
)

// Summary aggregates one scan.
type Summary struct {
	ScanID         string    `json:"scan_id"`
	TotalFiles     int       `json:"total_files"`
	TabularFiles   int       `json:"tabular_files"`
	TotalRows      int       `json:"total_rows"`
	TotalSizeBytes int64     `json:"total_size_bytes"`
	PassingChecks  int       `json:"passing_checks"`
	WarnChecks     int       `json:"warn_checks"`
	FailingChecks  int       `json:"failing_checks"`
	ScannedAt      time.Time `json:"scanned_at"`
	DurationMS     int64     `json:"duration_ms"`
}

// Overview is the full result of one scan.
type Overview struct {
	Summary Summary             `json:"summary"`
	Files   []*core.FileProfile `json:"files"`
	Checks  []checks.Result     `json:"checks"`
}

// Builder produces Overviews for one data root and rule document.
// It holds no per-scan state and is safe for concurrent use.
type Builder struct {
	sandbox   *core.Sandbox
	rulesPath string
	workers   int
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds how many files are profiled concurrently.
func WithWorkers(n int) Option {
	return func(b *Builder) { b.workers = n }
}

// WithMetrics records scan and check metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithClock overrides the scan timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a Builder. An empty rulesPath evaluates no rules.
func NewBuilder(sb *core.Sandbox, rulesPath string, opts ...Option) *Builder {
	b := &Builder{
		sandbox:   sb,
		rulesPath: rulesPath,
		workers:   core.DefaultWorkers,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Sandbox returns the data root the builder scans.
func (b *Builder) Sandbox() *core.Sandbox {
	return b.sandbox
}

// Rules loads the rule document.
func (b *Builder) Rules() (*rules.Set, error) {
	return rules.Load(b.rulesPath)
}

// Build scans the data root, evaluates per-file rules and then cross-file
// rules, and returns the sorted result. Unreadable files and failing checks
// are reported inside the Overview; only request-level problems (a broken
// rule document, cancellation) are returned as errors.
func (b *Builder) Build(ctx context.Context) (ov *Overview, err error) {
	began := time.Now()
	scannedAt := b.now().UTC()
	scanID := uuid.NewString()
	ctx = logging.WithScanID(ctx, scanID)
	logger := logging.WithFields(ctx, "data_root", b.sandbox.Root())

	defer func() {
		files, rows := 0, 0
		if ov != nil {
			files, rows = ov.Summary.TotalFiles, ov.Summary.TotalRows
		}
		b.metrics.ObserveScan(time.Since(began), files, rows, err)
	}()

	logger.Debug("scan started")

	files, err := b.sandbox.Scan(ctx)
	if err != nil {
		return nil, err
	}
	profiles, tables, err := b.sandbox.Profile(ctx, files, b.workers)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	set, err := b.Rules()
	if err != nil {
		logger.Error("rule document unavailable", "rules_path", b.rulesPath, "error", err)
		return nil, err
	}

	results := checks.EvaluateAll(set, checks.NewCorpus(profiles, tables))
	for _, r := range results {
		b.metrics.RecordCheck(r.Type, string(r.Status))
	}

	ov = &Overview{
		Summary: Summarize(profiles, results),
		Files:   profiles,
		Checks:  results,
	}
	SortFiles(ov.Files)
	SortChecks(ov.Checks)

	ov.Summary.ScanID = scanID
	ov.Summary.ScannedAt = scannedAt
	ov.Summary.DurationMS = time.Since(began).Milliseconds()

	logger.Info("scan completed",
		"files", ov.Summary.TotalFiles,
		"rows", ov.Summary.TotalRows,
		"passing", ov.Summary.PassingChecks,
		"warn", ov.Summary.WarnChecks,
		"failing", ov.Summary.FailingChecks,
		"duration_ms", ov.Summary.DurationMS,
	)
	return ov, nil
}

// Summarize counts files, rows and verdicts. Rows only come from tabular
// files.
func Summarize(profiles []*core.FileProfile, results []checks.Result) Summary {
	var s Summary
	s.TotalFiles = len(profiles)
	for _, p := range profiles {
		s.TotalSizeBytes += p.SizeBytes
		if p.IsTabular {
			s.TabularFiles++
			s.TotalRows += p.RowCount
		}
	}
	for _, r := range results {
		switch r.Status {
		case checks.StatusPass:
			s.PassingChecks++
		case checks.StatusWarn:
			s.WarnChecks++
		case checks.StatusFail:
			s.FailingChecks++
		}
	}
	return s
}

// SortFiles orders profiles by file name.
func SortFiles(files []*core.FileProfile) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].FileName < files[j].FileName
	})
}

// SortChecks orders results by file, then id.
func SortChecks(results []checks.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].File != results[j].File {
			return results[i].File < results[j].File
		}
		return results[i].ID < results[j].ID
	})
}
