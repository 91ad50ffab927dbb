// Package observability exposes prometheus metrics for the triage pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crimson-sun/warden/internal/model"
)

// Metrics holds the pipeline's prometheus collectors.
type Metrics struct {
	verdictsTotal    *prometheus.CounterVec
	degradedTotal    prometheus.Counter
	severityScore    prometheus.Histogram
	processingTime   prometheus.Histogram
	streamClients    prometheus.Gauge
	registry         *prometheus.Registry
}

// NewMetrics registers the collectors. Passing nil uses a fresh registry,
// which keeps tests isolated from the default one.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		verdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "warden_verdicts_total", Help: "Verdicts produced, by attack label and severity level"},
			[]string{"label", "level"},
		),
		degradedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "warden_degraded_records_total", Help: "Records normalized with default substitution"},
		),
		severityScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "warden_severity_score",
				Help:    "Distribution of severity scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		processingTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "warden_record_duration_seconds",
				Help:    "Per-record triage duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		streamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "warden_stream_clients", Help: "Connected websocket clients"},
		),
	}
	reg.MustRegister(
		m.verdictsTotal,
		m.degradedTotal,
		m.severityScore,
		m.processingTime,
		m.streamClients,
	)
	return m
}

// ObserveVerdict records one produced verdict.
func (m *Metrics) ObserveVerdict(v model.Verdict, took time.Duration) {
	m.verdictsTotal.WithLabelValues(string(v.Label), string(v.SeverityLevel)).Inc()
	m.severityScore.Observe(float64(v.SeverityScore))
	m.processingTime.Observe(took.Seconds())
	if v.Degraded {
		m.degradedTotal.Inc()
	}
}

// ClientConnected and ClientDisconnected track websocket fan-out size.
func (m *Metrics) ClientConnected()    { m.streamClients.Inc() }
func (m *Metrics) ClientDisconnected() { m.streamClients.Dec() }

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
