package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/hr-dashboard/internal/hrapi"
)

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/leaves/:id/approve", RouteLabel("/leaves/12/approve"))
	assert.Equal(t, "/employees/:id", RouteLabel("/employees/7"))
	assert.Equal(t, "/compliance/policies/:id/acknowledge", RouteLabel("/compliance/policies/3/acknowledge"))
	assert.Equal(t, "/stats/overview", RouteLabel("/stats/overview"))
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/employees/4", 200, 10*time.Millisecond, nil)
	m.ObserveRequest(http.MethodGet, "/employees/5", 401, 10*time.Millisecond, &hrapi.APIError{StatusCode: 401})

	assert.InDelta(t, 1, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/employees/:id", "200", "")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.APIRequests.WithLabelValues("GET", "/employees/:id", "401", "auth_rejected")), 0)
}

func TestCounters(t *testing.T) {
	m := New()
	m.GuardDecision("admin", "wrong_role")
	m.ViewActivated("employee", "attendance")
	m.LoaderResult("leaves", "table", errors.New("x"))
	m.StaleResult("leaves", "table")

	assert.InDelta(t, 1, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("admin", "wrong_role")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ViewActivations.WithLabelValues("employee", "attendance")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LoaderResults.WithLabelValues("leaves", "table", "error", "errors_errorstring")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StaleResults.WithLabelValues("leaves", "table")), 0)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.GuardDecision("admin", "authorized")
	m.ObserveRequest("GET", "/", 200, time.Millisecond, nil)
	m.LoaderResult("a", "b", nil)
	m.StaleResult("a", "b")
	m.ViewActivated("a", "b")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestHandler(t *testing.T) {
	m := New()
	m.GuardDecision("admin", "authorized")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hrdash_guard_decisions_total"))
}
