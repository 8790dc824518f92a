// Package metrics exposes Prometheus instruments for the dashboard.
package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/target/hr-dashboard/internal/observability/errors"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// Metrics groups the dashboard's instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	APIRequests     *prometheus.CounterVec
	APIDuration     *prometheus.HistogramVec
	GuardDecisions  *prometheus.CounterVec
	ViewActivations *prometheus.CounterVec
	LoaderResults   *prometheus.CounterVec
	StaleResults    *prometheus.CounterVec
	ReaperRemoved   *prometheus.CounterVec
}

// New registers all instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		APIRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrdash_backend_requests_total",
			Help: "Backend calls by method, route, status and error class",
		}, []string{"method", "route", "status", "class"}),
		APIDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrdash_backend_request_duration_seconds",
			Help:    "Backend call latency",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		GuardDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrdash_guard_decisions_total",
			Help: "Access guard outcomes by surface and state",
		}, []string{"surface", "state"}),
		ViewActivations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrdash_view_activations_total",
			Help: "View router activations by surface and view",
		}, []string{"surface", "view"}),
		LoaderResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrdash_loader_results_total",
			Help: "Feature loader outcomes by view, slot and result",
		}, []string{"view", "slot", "result", "class"}),
		StaleResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrdash_loader_stale_results_total",
			Help: "Loader results dropped because a newer activation superseded them",
		}, []string{"view", "slot"}),
		ReaperRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrdash_reaper_removed_total",
			Help: "Expired sessions and idle workspaces removed by the reaper",
		}, []string{"kind"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.Gatherers{}
	}
	return m.registry
}

// ObserveRequest implements hrapi.RequestObserver.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	route := RouteLabel(path)
	m.APIRequests.WithLabelValues(method, route, strconv.Itoa(status), obserrors.Classify(err)).Inc()
	m.APIDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// GuardDecision counts one guard outcome.
func (m *Metrics) GuardDecision(surface, state string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(surface, state).Inc()
}

// ViewActivated counts one router activation.
func (m *Metrics) ViewActivated(surface, view string) {
	if m == nil {
		return
	}
	m.ViewActivations.WithLabelValues(surface, view).Inc()
}

// LoaderResult counts one loader completion.
func (m *Metrics) LoaderResult(view, slot string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.LoaderResults.WithLabelValues(view, slot, result, obserrors.Classify(err)).Inc()
}

// StaleResult counts one dropped loader result.
func (m *Metrics) StaleResult(view, slot string) {
	if m == nil {
		return
	}
	m.StaleResults.WithLabelValues(view, slot).Inc()
}

// Reaped counts n entries of kind removed by one reaper pass.
func (m *Metrics) Reaped(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ReaperRemoved.WithLabelValues(kind).Add(float64(n))
}

// RouteLabel collapses numeric path segments so labels stay bounded.
func RouteLabel(path string) string {
	for numericSegment.MatchString(path) {
		path = numericSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}
