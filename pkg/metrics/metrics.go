// Package metrics exposes Prometheus instrumentation for the detection
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DetectorMetrics tracks business-level detection counters and timings.
type DetectorMetrics struct {
	DetectionsTotal     *prometheus.CounterVec
	DetectionDuration   *prometheus.HistogramVec
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	ParseMethodTotal    *prometheus.CounterVec
	SignalFailuresTotal *prometheus.CounterVec
}

// NewDetectorMetrics registers the detector metrics with reg.
func NewDetectorMetrics(namespace string, reg prometheus.Registerer) *DetectorMetrics {
	factory := promauto.With(reg)

	return &DetectorMetrics{
		DetectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Completed detections by fusion method.",
		}, []string{"method"}),

		DetectionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "Wall-clock duration of detection calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),

		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Verdicts served from the result cache.",
		}),

		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Detection calls that missed the result cache.",
		}),

		ParseMethodTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_parse_method_total",
			Help:      "LLM replies parsed, by waterfall strategy.",
		}, []string{"strategy"}),

		SignalFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_failures_total",
			Help:      "Signal-path failures by source (statistical or llm).",
		}, []string{"signal"}),
	}
}
