package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mydoor3520/log-detective/pkg/core"
)

// Metrics holds the collectors exported on /metrics. Each server owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	records         *prometheus.CounterVec
	detections      *prometheus.CounterVec
}

// NewMetrics creates and registers the service collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logdetective_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logdetective_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logdetective_records_extracted_total",
				Help: "Total number of error records extracted by language and severity",
			},
			[]string{"language", "severity"},
		),

		detections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logdetective_detections_total",
				Help: "Total number of inputs classified by detected language",
			},
			[]string{"language"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.records,
		m.detections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest records one served request.
func (m *Metrics) RecordRequest(route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordDetection records the language chosen for one input.
func (m *Metrics) RecordDetection(eco core.Ecosystem) {
	m.detections.WithLabelValues(eco.String()).Inc()
}

// RecordExtraction records every extracted record.
func (m *Metrics) RecordExtraction(records []core.ErrorRecord) {
	for i := range records {
		m.records.WithLabelValues(records[i].Ecosystem.String(), records[i].Severity.String()).Inc()
	}
}
