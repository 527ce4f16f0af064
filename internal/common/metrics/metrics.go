// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HandlerRequestsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_requests_completed_total",
			Help: "Total number of requests completed by handler",
		},
		[]string{"task_type"},
	)

	HandlerRequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_requests_failed_total",
			Help: "Total number of requests failed by handler",
		},
		[]string{"task_type", "error_code"},
	)

	HandlerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "handler_request_duration_seconds",
			Help: "Duration of request processing in seconds",
		},
		[]string{"task_type"},
	)

	HandlerRequestsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "handler_requests_active",
			Help: "Number of in-flight requests per handler",
		},
		[]string{"task_type"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of calls to the CRM API",
		},
		[]string{"operation", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "upstream_request_duration_seconds",
			Help: "Duration of CRM API calls in seconds",
		},
		[]string{"operation"},
	)
)
