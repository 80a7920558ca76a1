// Package metrics exposes Prometheus metrics for the HTTP API and the
// scheduling operations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"festivalscheduling/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics represents the collection of all Prometheus metrics
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ImportsTotal         *prometheus.CounterVec
	ImportPlanSessions   *prometheus.CounterVec
	ImportSkippedRows    prometheus.Counter
	FlaggedSessions      prometheus.Counter
	BookingsTotal        *prometheus.CounterVec
	DisplayOrdersChanged prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates all metrics and registers them with reg. A nil reg means
// a fresh registry, which keeps tests independent.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{gatherer: reg}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.ImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_imports_total",
			Help: "Schedule imports by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	m.ImportPlanSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_import_plan_sessions_total",
			Help: "Sessions classified by import plans, by action",
		},
		[]string{"mode", "action"},
	)

	m.ImportSkippedRows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_import_skipped_rows_total",
			Help: "Import rows skipped as malformed",
		},
	)

	m.FlaggedSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_flagged_sessions_total",
			Help: "Sessions kept for manual review because they have bookings",
		},
	)

	m.BookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	m.DisplayOrdersChanged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_display_orders_changed_total",
			Help: "Sessions renumbered by display order normalization",
		},
	)

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ImportsTotal,
		m.ImportPlanSessions,
		m.ImportSkippedRows,
		m.FlaggedSessions,
		m.BookingsTotal,
		m.DisplayOrdersChanged,
	)

	return m
}

// RequestTrackingMiddleware records count and latency per route pattern.
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// ServeMux fills in Pattern; raw paths would explode label cardinality.
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// ObserveImport records the outcome of one import.
func (m *Metrics) ObserveImport(mode string, report *domain.ImportReport, err error) {
	if err != nil || report == nil {
		m.ImportsTotal.WithLabelValues(mode, "error").Inc()
		return
	}
	m.ImportsTotal.WithLabelValues(mode, "ok").Inc()
	s := report.Summary
	m.ImportPlanSessions.WithLabelValues(mode, domain.MergeActionUpdate).Add(float64(s.ToUpdate))
	m.ImportPlanSessions.WithLabelValues(mode, domain.MergeActionCreate).Add(float64(s.ToCreate))
	m.ImportPlanSessions.WithLabelValues(mode, domain.MergeActionKeep).Add(float64(s.ToKeep))
	m.ImportPlanSessions.WithLabelValues(mode, domain.MergeActionDelete).Add(float64(s.ToDelete))
	m.ImportSkippedRows.Add(float64(report.SkippedRows))
	if mode == domain.ImportModeApply {
		m.FlaggedSessions.Add(float64(len(report.Flagged)))
	}
}

// ObserveBooking records one booking attempt.
func (m *Metrics) ObserveBooking(outcome string) {
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveNormalize records how many sessions a normalization renumbered.
func (m *Metrics) ObserveNormalize(changed int) {
	m.DisplayOrdersChanged.Add(float64(changed))
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
