// internal/studioapi/metrics.go
package studioapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records backend call counts and latency.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Failures *prometheus.CounterVec
}

// NewMetrics registers the client metrics with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yogadesk_backend_requests_total",
			Help: "Total number of requests sent to the studio backend",
		}, []string{"method", "resource", "code"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yogadesk_backend_request_duration_seconds",
			Help:    "Latency of studio backend requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "resource"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "yogadesk_backend_failures_total",
			Help: "Backend requests that returned an error to the console",
		}, []string{"method", "resource", "reason"}),
	}
}

func (m *Metrics) observe(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	resource := resourceLabel(path)
	code := "error"
	if status != 0 {
		code = strconv.Itoa(status)
	}
	m.Requests.WithLabelValues(method, resource, code).Inc()
	m.Duration.WithLabelValues(method, resource).Observe(elapsed.Seconds())
}

func (m *Metrics) fail(method, path, reason string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(method, resourceLabel(path), reason).Inc()
}

// resourceLabel keeps label cardinality bounded: /api/bookings/abc/status -> bookings.
func resourceLabel(path string) string {
	trimmed := strings.TrimPrefix(strings.Trim(path, "/"), "api/")
	if idx := strings.Index(trimmed, "/"); idx != -1 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}
