package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcome labels, one per terminal state of the normalizer.
const (
	outcomeSuccess = "success"
	outcomeAPI     = "api_error"
	outcomeHTTP    = "http_error"
	outcomeNetwork = "network_error"
	outcomeUnknown = "unknown_error"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "console_client",
			Name:      "requests_total",
			Help:      "API requests by normalized outcome.",
		},
		[]string{"outcome"},
	)

	retriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "console_client",
			Name:      "retries_total",
			Help:      "Retry attempts issued by the retry executor.",
		},
	)

	sessionRecoveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "console_client",
			Name:      "session_recoveries_total",
			Help:      "Session recovery invocations triggered by a 401.",
		},
	)
)
