package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TriageMetrics collects triage pipeline counters on a private registry.
type TriageMetrics struct {
	registry *prometheus.Registry

	emailsTotal     *prometheus.CounterVec
	ticketsTotal    *prometheus.CounterVec
	triageDuration  prometheus.Histogram
	triageInFlight  prometheus.Gauge
	duplicatesTotal prometheus.Counter
}

// NewTriageMetrics creates and registers the triage metric set.
func NewTriageMetrics() *TriageMetrics {
	registry := prometheus.NewRegistry()

	emailsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailbot",
			Subsystem: "triage",
			Name:      "emails_total",
			Help:      "Total classified emails by category and priority.",
		},
		[]string{"category", "priority"},
	)
	ticketsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mailbot",
			Subsystem: "triage",
			Name:      "tickets_total",
			Help:      "Total tickets opened by category.",
		},
		[]string{"category"},
	)
	triageDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mailbot",
			Subsystem: "triage",
			Name:      "batch_duration_seconds",
			Help:      "Duration of one poll-classify-triage batch.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	triageInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mailbot",
			Subsystem: "triage",
			Name:      "batch_in_flight",
			Help:      "Whether a triage batch is currently running.",
		},
	)
	duplicatesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mailbot",
			Subsystem: "triage",
			Name:      "duplicates_total",
			Help:      "Total emails skipped as duplicates.",
		},
	)

	registry.MustRegister(emailsTotal, ticketsTotal, triageDuration, triageInFlight, duplicatesTotal)

	return &TriageMetrics{
		registry:        registry,
		emailsTotal:     emailsTotal,
		ticketsTotal:    ticketsTotal,
		triageDuration:  triageDuration,
		triageInFlight:  triageInFlight,
		duplicatesTotal: duplicatesTotal,
	}
}

// Handler serves the metric set.
func (m *TriageMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartBatch marks a triage batch as running.
func (m *TriageMetrics) StartBatch() {
	m.triageInFlight.Inc()
}

// FinishBatch records a finished batch and its duration.
func (m *TriageMetrics) FinishBatch(started time.Time) {
	m.triageInFlight.Dec()
	m.triageDuration.Observe(time.Since(started).Seconds())
}

// ObserveEmail records one classified email.
func (m *TriageMetrics) ObserveEmail(category, priority string) {
	m.emailsTotal.WithLabelValues(category, priority).Inc()
}

// ObserveTicket records one opened ticket.
func (m *TriageMetrics) ObserveTicket(category string) {
	m.ticketsTotal.WithLabelValues(category).Inc()
}

// ObserveDuplicate records one skipped duplicate email.
func (m *TriageMetrics) ObserveDuplicate() {
	m.duplicatesTotal.Inc()
}
