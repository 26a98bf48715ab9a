package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many instances as they like. Every method is
// safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests     *prometheus.CounterVec
	apiLatency      *prometheus.HistogramVec
	apiInflight     prometheus.Gauge
	rollupRuns      *prometheus.CounterVec
	rollupDuration  *prometheus.HistogramVec
	droppedEvents   *prometheus.CounterVec
	badgesAwarded   *prometheus.CounterVec
	monthlyRequests *prometheus.CounterVec
	decodeWarnings  *prometheus.CounterVec
	notifyFailures  prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollup_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollup_api_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rollup_api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		rollupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollup_runs_total",
			Help: "Weekly rollup runs by category and outcome.",
		}, []string{"category", "status"}),
		rollupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollup_run_duration_seconds",
			Help:    "Weekly rollup run latency by category.",
			Buckets: prometheus.DefBuckets,
		}, []string{"category"}),
		droppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollup_dropped_events_total",
			Help: "Events left out of a rollup for a missing date or value.",
		}, []string{"category"}),
		badgesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollup_badges_awarded_total",
			Help: "Badge events appended by category and badge.",
		}, []string{"category", "badge"}),
		monthlyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollup_monthly_summaries_total",
			Help: "Monthly summaries computed by category and mode.",
		}, []string{"category", "mode"}),
		decodeWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rollup_deserialization_warnings_total",
			Help: "Stored rollup columns that could not be decoded.",
		}, []string{"column"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollup_notify_failures_total",
			Help: "Rollup update notifications that could not be published.",
		}),
	}
	m.registry.MustRegister(
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.rollupRuns,
		m.rollupDuration,
		m.droppedEvents,
		m.badgesAwarded,
		m.monthlyRequests,
		m.decodeWarnings,
		m.notifyFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveRollupRun(category, status string, dur time.Duration, dropped int) {
	if m == nil {
		return
	}
	m.rollupRuns.WithLabelValues(category, status).Inc()
	m.rollupDuration.WithLabelValues(category).Observe(dur.Seconds())
	if dropped > 0 {
		m.droppedEvents.WithLabelValues(category).Add(float64(dropped))
	}
}

func (m *Metrics) IncBadgeAwarded(category, badge string) {
	if m == nil {
		return
	}
	m.badgesAwarded.WithLabelValues(category, badge).Inc()
}

func (m *Metrics) IncMonthlySummary(category, mode string) {
	if m == nil {
		return
	}
	m.monthlyRequests.WithLabelValues(category, mode).Inc()
}

func (m *Metrics) IncDeserializationWarning(column string) {
	if m == nil {
		return
	}
	m.decodeWarnings.WithLabelValues(column).Inc()
}

func (m *Metrics) IncNotifyFailure() {
	if m == nil {
		return
	}
	m.notifyFailures.Inc()
}
