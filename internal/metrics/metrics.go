package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "apikit"

// collectors for one server instance; each instance owns its registry
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	queueMessages *prometheus.CounterVec

	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec

	dbConns *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),

		queueMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "messages_total",
			Help:      "Queue messages by topic and outcome.",
		}, []string{"topic", "outcome"}),

		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "success"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_run_duration_seconds",
			Help:      "Duration of scheduled job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"job"}),

		dbConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "connections",
			Help:      "Database pool connections by state.",
		}, []string{"state"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.queueMessages,
		m.jobRuns,
		m.jobDuration,
		m.dbConns,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return m
}

// exposes the registered collectors in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) IncInFlight() { m.httpInFlight.Inc() }
func (m *Metrics) DecInFlight() { m.httpInFlight.Dec() }

// records one completed HTTP request; route is the matched pattern, not the raw path
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}

	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// records a queue event: published, consumed or failed
func (m *Metrics) RecordQueueMessage(topic, outcome string) {
	m.queueMessages.WithLabelValues(topic, outcome).Inc()
}

func (m *Metrics) RecordJobRun(job string, success bool, duration time.Duration) {
	m.jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// publishes pool statistics
func (m *Metrics) SetDBConnections(total, idle, acquired int32) {
	m.dbConns.WithLabelValues("total").Set(float64(total))
	m.dbConns.WithLabelValues("idle").Set(float64(idle))
	m.dbConns.WithLabelValues("acquired").Set(float64(acquired))
}
