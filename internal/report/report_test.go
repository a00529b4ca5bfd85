package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rawready/internal/checks"
	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/metrics"
)

const checksDoc = `
per_file_checks:
  - file: digital/meta_ads.csv
    checks:
      - {id: meta_rows, title: Meta rows, type: row_count_between, min: 1, max: 10}
      - {id: meta_exists, title: Meta exists, type: exists}
  - file: missing.csv
    checks:
      - {id: a_missing, title: Missing file, type: exists}
cross_file_checks:
  - id: fk_campaign
    title: Campaign references
    type: foreign_key_reference
    source_file: campaigns.csv
    source_column: campaign_id
    target_file: digital/meta_ads.csv
    target_column: campaign_id
  - id: weird
    title: Unknown
    type: not_a_check
    file: campaigns.csv
`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newBuilder(t *testing.T, files map[string]string, doc string, opts ...Option) *Builder {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "raw")
	writeFiles(t, root, files)

	rulesPath := ""
	if doc != "" {
		rulesPath = filepath.Join(dir, "checks.yml")
		require.NoError(t, os.WriteFile(rulesPath, []byte(doc), 0o644))
	}

	sb, err := core.NewSandbox(root)
	require.NoError(t, err)
	return NewBuilder(sb, rulesPath, opts...)
}

func TestBuild(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	m := metrics.New()
	b := newBuilder(t, map[string]string{
		"digital/meta_ads.csv": "campaign_id,spend\nc1,10\nc2,20\n",
		"campaigns.csv":        "campaign_id\nc1\nc2\n",
		"readme.txt":           "hello",
		".gitkeep":             "",
	}, checksDoc, WithWorkers(2), WithMetrics(m), WithClock(func() time.Time { return fixed }))

	ov, err := b.Build(context.Background())
	require.NoError(t, err)

	s := ov.Summary
	assert.Equal(t, 3, s.TotalFiles)
	assert.Equal(t, 2, s.TabularFiles)
	assert.Equal(t, 4, s.TotalRows)
	assert.Equal(t, int64(len("campaign_id,spend\nc1,10\nc2,20\n")+len("campaign_id\nc1\nc2\n")+len("hello")), s.TotalSizeBytes)
	assert.Equal(t, 3, s.PassingChecks)
	assert.Equal(t, 1, s.WarnChecks)
	assert.Equal(t, 1, s.FailingChecks)
	assert.Equal(t, fixed.UTC(), s.ScannedAt)
	assert.Equal(t, time.UTC, s.ScannedAt.Location())
	_, err = uuid.Parse(s.ScanID)
	assert.NoError(t, err)

	var names []string
	for _, f := range ov.Files {
		names = append(names, f.FileName)
	}
	assert.Equal(t, []string{"campaigns.csv", "digital/meta_ads.csv", "readme.txt"}, names)

	var order []string
	for _, c := range ov.Checks {
		order = append(order, c.File+"|"+c.ID)
	}
	assert.Equal(t, []string{
		"campaigns.csv|weird",
		"digital/meta_ads.csv|fk_campaign",
		"digital/meta_ads.csv|meta_exists",
		"digital/meta_ads.csv|meta_rows",
		"missing.csv|a_missing",
	}, order)
}

func TestBuild_CountsMatchResults(t *testing.T) {
	b := newBuilder(t, map[string]string{"digital/meta_ads.csv": "campaign_id\nc1\n"}, checksDoc)

	ov, err := b.Build(context.Background())
	require.NoError(t, err)

	s := ov.Summary
	assert.Equal(t, len(ov.Checks), s.PassingChecks+s.WarnChecks+s.FailingChecks)
}

func TestBuild_EmptyRootNoRules(t *testing.T) {
	b := newBuilder(t, nil, "")

	ov, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ov.Summary.TotalFiles)
	assert.Zero(t, ov.Summary.PassingChecks+ov.Summary.WarnChecks+ov.Summary.FailingChecks)
	assert.Empty(t, ov.Files)
	assert.Empty(t, ov.Checks)
}

func TestBuild_BrokenRuleDocument(t *testing.T) {
	b := newBuilder(t, map[string]string{"a.csv": "id\n1\n"}, "- not a mapping\n")

	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, "RULE001", core.MapError(err).Code)
}

func TestBuild_MissingRuleDocument(t *testing.T) {
	sb, err := core.NewSandbox(t.TempDir())
	require.NoError(t, err)
	b := NewBuilder(sb, filepath.Join(t.TempDir(), "nope.yml"))

	_, err = b.Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, "RULE001", core.MapError(err).Code)
}

func TestBuild_Cancelled(t *testing.T) {
	b := newBuilder(t, map[string]string{"a.csv": "id\n1\n"}, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	profiles := []*core.FileProfile{
		{FileName: "a.csv", IsTabular: true, RowCount: 5, SizeBytes: 10},
		{FileName: "b.txt", SizeBytes: 7},
	}
	results := []checks.Result{
		{Status: checks.StatusPass}, {Status: checks.StatusFail}, {Status: checks.StatusFail},
	}

	s := Summarize(profiles, results)
	assert.Equal(t, Summary{
		TotalFiles:     2,
		TabularFiles:   1,
		TotalRows:      5,
		TotalSizeBytes: 17,
		PassingChecks:  1,
		FailingChecks:  2,
	}, s)
}

func TestSortChecks(t *testing.T) {
	results := []checks.Result{
		{File: "b.csv", ID: "a"},
		{File: "a.csv", ID: "z"},
		{File: "a.csv", ID: "b"},
	}
	SortChecks(results)
	assert.Equal(t, "a.csv", results[0].File)
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, "z", results[1].ID)
	assert.Equal(t, "b.csv", results[2].File)
}
