// Package metrics exposes Prometheus collectors for the download pipeline.
// Collectors are registered on an injected Registerer so that tests and
// embedding programs can keep their own registries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name
const Namespace = "video_downloader"

// Outcome labels
const (
	OutcomeFinished = "finished"
	OutcomeFailed   = "failed"
)

// Metrics implements the download recorder on top of Prometheus
type Metrics struct {
	submittedTotal *prometheus.CounterVec
	completedTotal *prometheus.CounterVec
	fallbackTotal  *prometheus.CounterVec
	refusedTotal   prometheus.Counter
	jobDuration    *prometheus.HistogramVec
	artifactBytes  *prometheus.HistogramVec
	inFlight       prometheus.Gauge
}

// New creates the collectors and registers them on reg.
// It panics if registration fails (e.g., duplicate names).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "jobs_submitted_total",
				Help:      "Download jobs accepted, by platform.",
			},
			[]string{"platform"},
		),
		completedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "jobs_completed_total",
				Help:      "Download jobs that reached a terminal phase, by platform and outcome.",
			},
			[]string{"platform", "outcome"},
		),
		fallbackTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fallback_attempts_total",
				Help:      "Retries made with an alternate extractor configuration.",
			},
			[]string{"fallback"},
		),
		refusedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "jobs_refused_total",
				Help:      "Submissions refused because the job queue was full.",
			},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "job_duration_seconds",
				Help:      "Wall time from job start to terminal phase.",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"platform"},
		),
		artifactBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "artifact_size_bytes",
				Help:      "Size of published artifacts.",
				Buckets: []float64{
					1048576,    // 1MB
					10485760,   // 10MB
					104857600,  // 100MB
					524288000,  // 500MB
					1073741824, // 1GB
				},
			},
			[]string{"format"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "jobs_in_flight",
				Help:      "Jobs currently running on a worker.",
			},
		),
	}

	reg.MustRegister(
		m.submittedTotal,
		m.completedTotal,
		m.fallbackTotal,
		m.refusedTotal,
		m.jobDuration,
		m.artifactBytes,
		m.inFlight,
	)
	return m
}

func (m *Metrics) JobSubmitted(platform string) {
	m.submittedTotal.WithLabelValues(platform).Inc()
}

func (m *Metrics) JobRefused() {
	m.refusedTotal.Inc()
}

func (m *Metrics) JobStarted() {
	m.inFlight.Inc()
}

// JobCompleted records a terminal outcome and the time the job ran
func (m *Metrics) JobCompleted(platform, outcome string, elapsed time.Duration) {
	m.inFlight.Dec()
	m.completedTotal.WithLabelValues(platform, outcome).Inc()
	m.jobDuration.WithLabelValues(platform).Observe(elapsed.Seconds())
}

func (m *Metrics) FallbackAttempted(name string) {
	m.fallbackTotal.WithLabelValues(name).Inc()
}

func (m *Metrics) ArtifactPublished(format string, size int64) {
	m.artifactBytes.WithLabelValues(format).Observe(float64(size))
}
