package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMutation(t *testing.T) {
	c := NewCollector("wayfinder")
	c.RecordMutation("create_node", nil)
	c.RecordMutation("create_node", nil)
	c.RecordMutation("create_node", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Mutations.WithLabelValues("create_node", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Mutations.WithLabelValues("create_node", "failure")))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("wayfinder")
	b := NewCollector("wayfinder")
	a.RecordLockConflict()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.LockConflicts))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.LockConflicts))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector("wayfinder")
	c.ObserveHTTP(http.MethodGet, "/api/maps", http.StatusOK, 20*time.Millisecond)
	c.RecordPublishFailure()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `wayfinder_http_requests_total{method="GET",route="/api/maps",status="200"} 1`)
	assert.Contains(t, body, "wayfinder_event_publish_failures_total 1")
}

func TestDisabledTracerRunsInline(t *testing.T) {
	tr := NewTracer("wayfinder", false)
	called := false
	err := tr.Trace(context.Background(), "op", func(context.Context) error {
		called = true
		return errors.New("inner")
	})
	assert.True(t, called)
	assert.EqualError(t, err, "inner")

	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, tr.Middleware(h))
}
