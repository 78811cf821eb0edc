// Package metrics exposes Prometheus counters for the HTTP server and the
// background jobs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	extractions  *prometheus.CounterVec
	sitemapFalls prometheus.Counter
	jobRuns      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealboard",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dealboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealboard",
			Name:      "deal_extractions_total",
			Help:      "Screenshot extractions by outcome.",
		}, []string{"outcome"}),
		sitemapFalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dealboard",
			Name:      "sitemap_degraded_total",
			Help:      "Sitemap builds that fell back to static routes.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealboard",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.extractions, m.sitemapFalls, m.jobRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Extraction outcomes.
const (
	ExtractOK          = "ok"
	ExtractBadRequest  = "bad_request"
	ExtractModelError  = "model_error"
	ExtractUnavailable = "unavailable"
)

func (m *Metrics) ObserveExtraction(outcome string) {
	m.extractions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SitemapDegraded(error) {
	m.sitemapFalls.Inc()
}

func (m *Metrics) ObserveJob(job string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobRuns.WithLabelValues(job, result).Inc()
}
