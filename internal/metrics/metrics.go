// Package metrics holds the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests per route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airdash_http_requests_total",
		Help: "HTTP requests served, by route and status code.",
	}, []string{"route", "status"})

	// HTTPDuration tracks request latency per route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "airdash_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// DatasetRows reports the number of observations currently loaded.
	DatasetRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "airdash_dataset_rows",
		Help: "Observations currently held in the store.",
	})

	// DatasetReloads counts dataset reload attempts by outcome.
	DatasetReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airdash_dataset_reloads_total",
		Help: "Dataset reload attempts, by outcome.",
	}, []string{"status"})
)
