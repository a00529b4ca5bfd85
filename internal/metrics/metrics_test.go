package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveScan(t *testing.T) {
	m := New()

	m.ObserveScan(120*time.Millisecond, 3, 42, nil)
	m.ObserveScan(time.Second, 0, 0, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.filesScanned), "failed scans leave gauges untouched")
	assert.Equal(t, 42.0, testutil.ToFloat64(m.rowsScanned))
}

func TestRecordCheck(t *testing.T) {
	m := New()
	m.RecordCheck("exists", "pass")
	m.RecordCheck("exists", "pass")
	m.RecordCheck("date_range", "fail")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkResults.WithLabelValues("exists", "pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkResults.WithLabelValues("date_range", "fail")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `rawready_http_requests_total{code="200",method="GET",route="/health"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveScan(time.Second, 1, 1, nil)
		m.RecordCheck("exists", "pass")
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
