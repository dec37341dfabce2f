package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// UpstreamRequestsTotal counts calls to node, indexer and pricing APIs.
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bucks_upstream_requests_total",
			Help: "Total number of upstream API requests.",
		},
		[]string{"upstream", "operation", "outcome"},
	)

	// UpstreamRequestDuration records upstream latency.
	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bucks_upstream_request_duration_seconds",
			Help:    "Upstream API request latency distributions.",
			Buckets: []float64{0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"upstream", "operation"},
	)

	// HTTPRequestsTotal counts requests served by the local JSON API.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bucks_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration records local JSON API latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bucks_http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: []float64{0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"method", "path"},
	)

	// TransfersTotal counts executed transfers by network and outcome.
	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bucks_transfers_total",
			Help: "Total number of submitted transfers.",
		},
		[]string{"network", "outcome"},
	)
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			UpstreamRequestsTotal,
			UpstreamRequestDuration,
			HTTPRequestsTotal,
			HTTPRequestDuration,
			TransfersTotal,
		)
	})
}

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveUpstream records one upstream call that started at start.
func ObserveUpstream(upstream, operation string, start time.Time, err error) {
	UpstreamRequestsTotal.WithLabelValues(upstream, operation, Outcome(err)).Inc()
	UpstreamRequestDuration.WithLabelValues(upstream, operation).Observe(time.Since(start).Seconds())
}

// ObserveTransfer records one executed transfer.
func ObserveTransfer(network string, err error) {
	TransfersTotal.WithLabelValues(network, Outcome(err)).Inc()
}
