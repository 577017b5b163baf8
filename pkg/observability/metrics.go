// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring citygate.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citygate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citygate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RequestsInFlight tracks requests currently being served.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "citygate_requests_in_flight",
			Help: "Requests in flight",
		},
	)

	// AuthFailuresTotal counts authentication failures by kind and route.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citygate_auth_failures_total",
			Help: "Authentication failures",
		},
		[]string{"kind", "route"},
	)

	// AuthzDenialsTotal counts authorization denials by kind and route.
	AuthzDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citygate_authz_denials_total",
			Help: "Authorization denials",
		},
		[]string{"kind", "route"},
	)

	// AccountLookupsTotal counts live account checks by result
	// (ok, rejected, not_found, error).
	AccountLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citygate_account_lookups_total",
			Help: "Live account lookups",
		},
		[]string{"result"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citygate_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"role"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		AuthFailuresTotal,
		AuthzDenialsTotal,
		AccountLookupsTotal,
		RateLimitRejectedTotal,
	)
}
