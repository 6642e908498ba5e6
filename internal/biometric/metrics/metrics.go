package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the biometric module: workflow outcomes
// and matcher round-trip latency.
type Metrics struct {
	Enrollments     *prometheus.CounterVec
	Identifications *prometheus.CounterVec
	MatcherDuration prometheus.Histogram
}

// New creates and registers the biometric metrics.
func New() *Metrics {
	return &Metrics{
		Enrollments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "novenantes_biometric_enrollments_total",
			Help: "Enrollment workflow outcomes",
		}, []string{"outcome"}),
		Identifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "novenantes_biometric_identifications_total",
			Help: "Identification workflow outcomes",
		}, []string{"outcome"}),
		MatcherDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "novenantes_biometric_matcher_duration_seconds",
			Help:    "Round-trip latency of matching service calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// RecordEnrollment counts an enrollment outcome.
func (m *Metrics) RecordEnrollment(outcome string) {
	m.Enrollments.WithLabelValues(outcome).Inc()
}

// RecordIdentification counts an identification outcome.
func (m *Metrics) RecordIdentification(outcome string) {
	m.Identifications.WithLabelValues(outcome).Inc()
}

// ObserveMatcher records the duration of a matcher call started at start.
func (m *Metrics) ObserveMatcher(start time.Time) {
	m.MatcherDuration.Observe(time.Since(start).Seconds())
}
