package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// JobMetrics covers the classification pipeline itself, independent of which
// process (API inline or queue worker) runs it.
type JobMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	findingsTotal   *prometheus.CounterVec
	unitsPerJob     *prometheus.HistogramVec
	embeddingMode   prometheus.Gauge
}

// NewJobMetrics registers into the given registry so API and worker builds
// can share one or keep their own. A nil registry gets a fresh one.
func NewJobMetrics(service string, registry *prometheus.Registry) *JobMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docucheck",
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Total processed classification jobs by final status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docucheck",
			Subsystem: "jobs",
			Name:      "process_duration_seconds",
			Help:      "Job processing duration in seconds by final status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docucheck",
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Number of jobs currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	findingsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docucheck",
			Subsystem: "jobs",
			Name:      "findings_total",
			Help:      "Total classified text units by predicted label.",
		},
		[]string{"service", "label"},
	)
	unitsPerJob := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docucheck",
			Subsystem: "jobs",
			Name:      "text_units",
			Help:      "Distribution of classified text units per job.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	embeddingMode := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docucheck",
			Subsystem: "jobs",
			Name:      "embedding_enabled",
			Help:      "1 when embedding scoring is active, 0 when heuristics-only.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, findingsTotal, unitsPerJob, embeddingMode)

	return &JobMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		findingsTotal:   findingsTotal,
		unitsPerJob:     unitsPerJob,
		embeddingMode:   embeddingMode,
	}
}

func (m *JobMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *JobMetrics) StartJob() {
	m.processInFlight.Inc()
}

func (m *JobMetrics) FinishJob(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "done"
	if err != nil {
		status = "failed"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *JobMetrics) RecordFinding(service, label string) {
	if label == "" {
		label = "unknown"
	}
	m.findingsTotal.WithLabelValues(service, label).Inc()
}

func (m *JobMetrics) ObserveTextUnits(service string, count int) {
	if count < 0 {
		return
	}
	m.unitsPerJob.WithLabelValues(service).Observe(float64(count))
}

func (m *JobMetrics) SetEmbeddingEnabled(enabled bool) {
	if enabled {
		m.embeddingMode.Set(1)
		return
	}
	m.embeddingMode.Set(0)
}
