// Package metrics exposes Prometheus instrumentation for the dictation pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the voxcmd daemon.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsCancelled prometheus.Counter

	TranscriptionFailures prometheus.Counter
	TranscriptionDuration prometheus.Histogram
	InsertionFailures     prometheus.Counter

	CommandMatches prometheus.Counter
	WakeDetections prometheus.Counter
	WakeErrors     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all daemon metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcmd_sessions_started_total",
			Help: "Total number of capture sessions started",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcmd_sessions_completed_total",
			Help: "Total number of capture sessions that reached insertion",
		}),
		SessionsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcmd_sessions_cancelled_total",
			Help: "Total number of capture sessions cancelled or aborted",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcmd_transcription_failures_total",
			Help: "Total number of failed transcription calls",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxcmd_transcription_duration_seconds",
			Help:    "Wall-clock latency of transcription calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		InsertionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcmd_insertion_failures_total",
			Help: "Total number of failed text insertions",
		}),
		CommandMatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcmd_command_matches_total",
			Help: "Total number of transcripts rewritten by a voice command",
		}),
		WakeDetections: factory.NewCounter(prometheus.CounterOpts{
			Name: "voxcmd_wake_detections_total",
			Help: "Total number of wake-word detections above threshold",
		}),
		WakeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxcmd_wake_errors_total",
			Help: "Total number of wake-word machine failures by reason",
		}, []string{"reason"}),
		registry: registry,
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
