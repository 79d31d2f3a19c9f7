// Package metrics exposes prometheus counters for tool invocations and the
// upstream calls they make.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reviewbridge"

var (
	// Invocations counts pipeline runs by platform and outcome ("ok" or an
	// error kind).
	Invocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invocations_total",
		Help:      "Tool invocations by platform and outcome.",
	}, []string{"platform", "outcome"})

	// UpstreamRequests counts platform API calls by status code.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Upstream API requests by platform and status code.",
	}, []string{"platform", "code"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"platform"})
)

// ObserveInvocation records one pipeline run.
func ObserveInvocation(platform, outcome string) {
	Invocations.WithLabelValues(platform, outcome).Inc()
}

// ObserveUpstream records one upstream call. A zero status means the call
// failed before a response arrived.
func ObserveUpstream(platform string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	UpstreamRequests.WithLabelValues(platform, code).Inc()
	UpstreamDuration.WithLabelValues(platform).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
