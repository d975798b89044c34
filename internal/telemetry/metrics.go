// Package telemetry exposes the Prometheus collectors of the service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	reg               *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	jiraDuration      *prometheus.HistogramVec
	jiraErrors        *prometheus.CounterVec
	reportsComputed   *prometheus.CounterVec
	staleDiscarded    prometheus.Counter
	digestRuns        *prometheus.CounterVec
}

// NewMetrics registers every collector on a private registry so several
// instances can coexist in tests.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_cache_hits_total",
			Help: "Total report cache hits observed.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "report_cache_misses_total",
			Help: "Total report cache misses observed.",
		}),
		jiraDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jira_request_duration_seconds",
			Help:    "Histogram of Jira REST call durations by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		jiraErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jira_request_errors_total",
			Help: "Total failed Jira REST calls by endpoint.",
		}, []string{"endpoint"}),
		reportsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_computed_total",
			Help: "Reports computed by kind.",
		}, []string{"kind"}),
		staleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stale_fetches_discarded_total",
			Help: "Fetch results dropped because a newer fetch was issued.",
		}),
		digestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "digest_runs_total",
			Help: "Leadership digest runs by outcome.",
		}, []string{"outcome"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.cacheHits,
		m.cacheMisses,
		m.jiraDuration,
		m.jiraErrors,
		m.reportsComputed,
		m.staleDiscarded,
		m.digestRuns,
	)
	return m
}

// Middleware records request counts and durations per gin route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) JiraRequest(endpoint string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.jiraDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if !success {
		m.jiraErrors.WithLabelValues(endpoint).Inc()
	}
}

func (m *Metrics) ReportComputed(kind string) {
	if m == nil {
		return
	}
	m.reportsComputed.WithLabelValues(kind).Inc()
}

func (m *Metrics) StaleDiscarded() {
	if m == nil {
		return
	}
	m.staleDiscarded.Inc()
}

func (m *Metrics) DigestRun(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.digestRuns.WithLabelValues(outcome).Inc()
}
