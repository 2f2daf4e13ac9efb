// Package metrics exposes Prometheus metrics for directory runs and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/palantir/compute-module-people-directory/internal/directory"
)

const namespace = "peopledir"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	activeRequests  prometheus.Gauge
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	pagesTotal      *prometheus.CounterVec
	profilesFetched prometheus.Counter
	lookupsTotal    *prometheus.CounterVec
	runDuration     prometheus.Histogram
	lastEntries     prometheus.Gauge
}

var _ directory.Observer = (*Metrics)(nil)

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help:      "Number of HTTP requests currently being served.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		pagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_pages_total",
			Help:      "Directory page queries by result (ok, failed).",
		}, []string{"result"}),
		profilesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_profiles_total",
			Help:      "Profiles returned by directory page queries.",
		}),
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_lookups_total",
			Help:      "Presence lookups by outcome (included, excluded, failed).",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of complete directory runs.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		lastEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_entries",
			Help:      "Entries produced by the most recent complete run.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.activeRequests,
		m.requestsTotal,
		m.requestDuration,
		m.pagesTotal,
		m.profilesFetched,
		m.lookupsTotal,
		m.runDuration,
		m.lastEntries,
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler { return m.handler }

func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }

func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(path string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

func (m *Metrics) PageFetched(records, _ int) {
	m.pagesTotal.WithLabelValues("ok").Inc()
	m.profilesFetched.Add(float64(records))
}

func (m *Metrics) PageFailed(error) {
	m.pagesTotal.WithLabelValues("failed").Inc()
}

func (m *Metrics) LookupFailed(*directory.PresenceLookupError) {
	m.lookupsTotal.WithLabelValues("failed").Inc()
}

func (m *Metrics) LookupExcluded(string, directory.Availability) {
	m.lookupsTotal.WithLabelValues("excluded").Inc()
}

func (m *Metrics) LookupSucceeded(directory.ProfileRecord, directory.PresenceSnapshot) {
	m.lookupsTotal.WithLabelValues("included").Inc()
}

func (m *Metrics) RunCompleted(_, entries int, elapsed time.Duration) {
	m.runDuration.Observe(elapsed.Seconds())
	m.lastEntries.Set(float64(entries))
}
