package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/metrics"
	"github.com/JonMunkholm/rawready/internal/report"
)

const testRules = `
per_file_checks:
  - file: ads.csv
    checks:
      - {id: ads_exists, title: Ads exist, type: exists}
      - {id: ads_rows, title: Ads rows, type: row_count_between, min: 5}
`

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "raw")
	files := map[string]string{
		"ads.csv":          "campaign_id,spend\nc1,10\nc2,20\n",
		"nested/notes.txt": "line one\nline two",
		"broken.csv":       "a,b\n1,2,3\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.csv"), []byte("x\n1\n"), 0o644))

	rulesPath := filepath.Join(dir, "checks.yml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(testRules), 0o644))

	sb, err := core.NewSandbox(root)
	require.NoError(t, err)
	return NewServer(report.NewBuilder(sb, rulesPath, report.WithMetrics(opts.Metrics)), opts)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRootAndHealth(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	banner := decode[BannerResponse](t, rec)
	assert.Equal(t, "online", banner.Status)
	assert.Equal(t, ServiceName, banner.Service)
	assert.Equal(t, "Service is running", banner.Message)
	assert.WithinDuration(t, time.Now(), banner.TimestampUTC, time.Minute)

	rec = get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/api/raw/dashboard/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	ov := decode[report.Overview](t, rec)
	assert.Equal(t, 3, ov.Summary.TotalFiles)
	assert.Equal(t, 2, ov.Summary.TabularFiles)
	assert.Equal(t, 2, ov.Summary.TotalRows)
	assert.Equal(t, 1, ov.Summary.PassingChecks)
	assert.Equal(t, 1, ov.Summary.FailingChecks)
	assert.NotEmpty(t, ov.Summary.ScanID)

	require.Len(t, ov.Files, 3)
	assert.Equal(t, "ads.csv", ov.Files[0].FileName)
	assert.Equal(t, "broken.csv", ov.Files[1].FileName)
	assert.Equal(t, "unable to parse", ov.Files[1].Error)
	assert.Equal(t, "nested/notes.txt", ov.Files[2].FileName)
}

func TestFilesAndChecks(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/api/raw/dashboard/files")
	require.Equal(t, http.StatusOK, rec.Code)
	var files map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	assert.Contains(t, files, "summary")
	assert.Contains(t, files, "files")
	assert.NotContains(t, files, "checks")

	for _, path := range []string{"/api/raw/dashboard/prd-checks", "/api/raw/dashboard/checks"} {
		rec = get(t, s, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		resp := decode[ChecksResponse](t, rec)
		require.Len(t, resp.Checks, 2, path)
		assert.Equal(t, "ads_exists", resp.Checks[0].ID)
		assert.Equal(t, "ads_rows", resp.Checks[1].ID)
	}
}

func TestRules(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := get(t, s, "/api/raw/dashboard/rules")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RulesResponse](t, rec)
	require.Len(t, resp.Rules, 2)
	assert.Equal(t, "ads.csv", resp.Rules[0].File)
	assert.Contains(t, resp.SupportedTypes, "foreign_key_reference")
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, Options{})

	t.Run("tabular", func(t *testing.T) {
		rec := get(t, s, "/api/raw/dashboard/file/ads.csv?rows=1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"file_name": "ads.csv",
			"rows": 2,
			"columns": ["campaign_id", "spend"],
			"preview_rows": [{"campaign_id": "c1", "spend": "10"}]
		}`, rec.Body.String())
	})

	t.Run("nested opaque", func(t *testing.T) {
		rec := get(t, s, "/api/raw/dashboard/file/nested/notes.txt")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[core.PreviewResponse](t, rec)
		assert.Equal(t, "nested/notes.txt", resp.FileName)
		assert.Equal(t, 2, resp.Rows)
		assert.Equal(t, []string{"text"}, resp.Columns)
	})

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"rows too large", "/api/raw/dashboard/file/ads.csv?rows=201", http.StatusBadRequest, "PARAM001"},
		{"rows zero", "/api/raw/dashboard/file/ads.csv?rows=0", http.StatusBadRequest, "PARAM001"},
		{"rows not a number", "/api/raw/dashboard/file/ads.csv?rows=abc", http.StatusBadRequest, "PARAM001"},
		{"missing", "/api/raw/dashboard/file/nope.csv", http.StatusNotFound, "PATH001"},
		{"directory", "/api/raw/dashboard/file/nested", http.StatusNotFound, "PATH001"},
		{"escape", "/api/raw/dashboard/file/../secret.csv", http.StatusForbidden, "PATH002"},
		{"encoded escape", "/api/raw/dashboard/file/..%2Fsecret.csv", http.StatusForbidden, "PATH002"},
		{"unparseable", "/api/raw/dashboard/file/broken.csv", http.StatusUnprocessableEntity, "FILE001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestScanBusy(t *testing.T) {
	limiter := core.NewScanLimiter(1, 10*time.Millisecond)
	s := newTestServer(t, Options{Limiter: limiter})

	require.True(t, limiter.TryAcquire())
	defer limiter.Release()

	rec := get(t, s, "/api/raw/dashboard/summary")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, "REQ001", decode[ErrorResponse](t, rec).Code)
}

func TestMissingRuleDocument(t *testing.T) {
	sb, err := core.NewSandbox(t.TempDir())
	require.NoError(t, err)
	s := NewServer(report.NewBuilder(sb, filepath.Join(t.TempDir(), "absent.yml")), Options{})

	rec := get(t, s, "/api/raw/dashboard/summary")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "RULE001", decode[ErrorResponse](t, rec).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	s := newTestServer(t, Options{Metrics: m})

	require.Equal(t, http.StatusOK, get(t, s, "/health").Code)
	require.Equal(t, http.StatusOK, get(t, s, "/api/raw/dashboard/summary").Code)

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `rawready_http_requests_total{code="200",method="GET",route="/health"} 1`)
	assert.Contains(t, body, `route="/api/raw/dashboard/summary"`)
	assert.True(t, strings.Contains(body, `rawready_scans_total{outcome="success"} 1`), body)
}

func TestMetricsDisabled(t *testing.T) {
	s := newTestServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, get(t, s, "/metrics").Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(fmt.Errorf("profile: %w", context.DeadlineExceeded)))
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("preview: %w", core.ErrNotFound)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
