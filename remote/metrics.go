package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's prometheus collectors.
type Metrics struct {
	// Requests counts handled requests by command and status.
	Requests *prometheus.CounterVec
	// Duration is the request handling latency by command.
	Duration *prometheus.HistogramVec
	// Connections is the number of open client connections.
	Connections prometheus.Gauge
}

// NewMetrics creates the server collectors and registers them on reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoard_remote_requests_total",
				Help: "Total number of remote store requests",
			},
			[]string{"command", "status"},
		),
		Duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hoard_remote_request_duration_seconds",
				Help:    "Remote store request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		Connections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "hoard_remote_connections",
				Help: "Number of open remote store connections",
			},
		),
	}
}
