// Package metrics provides Prometheus metrics collection for opsml.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the opsml server.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Registry metrics
	CardsRegistered *prometheus.CounterVec
	CardsUpdated    *prometheus.CounterVec
	RegistryErrors  *prometheus.CounterVec

	// Transfer metrics
	UploadBytes    prometheus.Counter
	DownloadBytes  prometheus.Counter
	UploadRejected *prometheus.CounterVec

	// Auth metrics
	AuthFailures prometheus.Counter
}

// New creates a collector with all metrics registered on reg. Tests
// pass a fresh registry so repeated construction never collides.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opsml",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "opsml",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "opsml",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being served",
			},
		),
		CardsRegistered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opsml",
				Name:      "cards_registered_total",
				Help:      "Cards committed per registry",
			},
			[]string{"registry"},
		),
		CardsUpdated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opsml",
				Name:      "cards_updated_total",
				Help:      "Card update operations per registry",
			},
			[]string{"registry"},
		),
		RegistryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opsml",
				Name:      "registry_errors_total",
				Help:      "Registry operation failures per registry",
			},
			[]string{"registry", "operation"},
		),
		UploadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "opsml",
				Name:      "upload_bytes_total",
				Help:      "Artifact bytes accepted by the upload endpoint",
			},
		),
		DownloadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "opsml",
				Name:      "download_bytes_total",
				Help:      "Artifact bytes streamed by download endpoints",
			},
		),
		UploadRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "opsml",
				Name:      "uploads_rejected_total",
				Help:      "Uploads rejected before completion",
			},
			[]string{"reason"},
		),
		AuthFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "opsml",
				Name:      "auth_failures_total",
				Help:      "Requests rejected by token auth",
			},
		),
	}
}
