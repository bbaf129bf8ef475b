// Package monitoring exposes Prometheus metrics for generation sessions and
// provider calls. Metrics are registered once at init via promauto; callers
// record through the package-level collectors.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s2c_sessions_total",
			Help: "Total number of generation sessions by input mode and generation type",
		},
		[]string{"input_mode", "generation_type"},
	)

	SessionFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "s2c_session_failures_total",
			Help: "Total number of sessions terminated with an error frame",
		},
	)

	VariantsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s2c_variants_total",
			Help: "Total number of generation variants by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	VariantDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s2c_variant_duration_seconds",
			Help:    "Provider generation latency per variant in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 320},
		},
		[]string{"provider"},
	)

	ArtifactSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s2c_artifact_saves_total",
			Help: "Total number of artifact persistence attempts by status",
		},
		[]string{"status"},
	)
)

// RecordVariant records one finished variant.
func RecordVariant(provider string, outcome string, seconds float64) {
	VariantsTotal.WithLabelValues(provider, outcome).Inc()
	if outcome == "completed" {
		VariantDuration.WithLabelValues(provider).Observe(seconds)
	}
}
