package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "careers"

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	LoginAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_login_attempts_total",
			Help: "Total number of login attempts",
		},
	)
	LoginFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_login_failures_total",
			Help: "Total number of failed logins",
		},
	)

	// Draft lifecycle metrics
	DraftSaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_draft_saves_total",
			Help: "Total number of draft snapshot saves",
		},
	)
	DraftDiscards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_draft_discards_total",
			Help: "Total number of draft discards",
		},
	)
	Publishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_publishes_total",
			Help: "Total number of publish attempts",
		},
		[]string{"outcome"}, // success, noop, failure
	)

	// Preview metrics
	PreviewStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_preview_streams",
			Help: "Number of open preview event streams",
		},
	)
)
