package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStorage(t *testing.T) {
	m := New()

	m.ObserveStorage("upload", 10*time.Millisecond, nil)
	m.ObserveStorage("upload", 5*time.Millisecond, errors.New("boom"))
	m.ObserveStorage("download", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageOps.WithLabelValues("upload", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageOps.WithLabelValues("upload", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageOps.WithLabelValues("download", "ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStorage("list", time.Millisecond, nil)
		m.AddBytes("in", 10)
	})
}

func TestRequestStarted(t *testing.T) {
	m := New()

	done := m.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inflight))
	done("200", http.MethodGet, "/r2/list")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("200", http.MethodGet, "/r2/list")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.AddBytes("out", 42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `r2gate_storage_bytes_total{direction="out"} 42`)
}
