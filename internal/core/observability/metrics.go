// Package observability owns the Prometheus collectors shared by the HTTP
// surface, the executor and the geocoding client.
package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream", "endpoint"},
	)

	geocodeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Coordinate to three-word lookups by outcome.",
		},
		[]string{"outcome"},
	)

	wfsRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wfs_requests_total",
			Help: "WFS operations dispatched, by operation and protocol version.",
		},
		[]string{"operation", "version"},
	)

	gridPoints = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wfs_grid_points",
			Help:    "Grid points generated per GetFeature.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to 16384
		},
	)

	featuresReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wfs_features_returned",
			Help:    "Features returned per GetFeature after failed lookups are dropped.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds, upstreamLatencySeconds,
		geocodeResults, wfsRequests, gridPoints, featuresReturned, buildInfo,
	}
}

// Init registers every collector with reg. Registering on a registry that
// already holds them is not an error, so callers may Init more than once.
func Init(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream, endpoint string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream, endpoint).Observe(durationSeconds)
}

// ObserveGeocode counts one lookup; err == nil is a success.
func ObserveGeocode(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	geocodeResults.WithLabelValues(outcome).Inc()
}

// IncWFSRequest counts one dispatched operation. version must be a resolved
// dialect version, never the raw query value.
func IncWFSRequest(operation, version string) {
	wfsRequests.WithLabelValues(operation, version).Inc()
}

func ObserveGetFeature(points, features int) {
	gridPoints.Observe(float64(points))
	featuresReturned.Observe(float64(features))
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
