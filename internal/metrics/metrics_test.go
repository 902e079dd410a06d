package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordReflectionCountsByOutcome(t *testing.T) {
	m := New()

	m.RecordReflection(OutcomeSuccess)
	m.RecordReflection(OutcomeSuccess)
	m.RecordReflection(OutcomeFallback)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReflectionsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReflectionsTotal.WithLabelValues(OutcomeFallback)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.RecordReflection(OutcomeSuccess)
	m.RecordModelCall(OutcomeSuccess, time.Second)
	m.RecordHTTP(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesRecordedSeries(t *testing.T) {
	m := New()
	m.RecordHTTP(http.MethodPost, "/api/reflect", http.StatusOK, 20*time.Millisecond)
	m.RecordModelCall(OutcomeSuccess, 300*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `ubloom_http_requests_total{method="POST",route="/api/reflect",status="200"} 1`), text)
	assert.True(t, strings.Contains(text, "ubloom_reflection_model_call_duration_seconds_count"), text)
}
