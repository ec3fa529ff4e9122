// Package metrics provides the Prometheus registry reference for the tag
// updater. Metrics are defined in their owning packages (client, cache) and
// registered automatically via promauto; this package documents them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the tool.
var Registry = prometheus.DefaultRegisterer

// Metrics Reference
//
// Request metrics (pkg/client):
//   - snyk_requests_total{endpoint, status} (Counter): requests by endpoint and HTTP status
//   - snyk_request_duration_seconds{endpoint} (Histogram): request duration by endpoint
//   - snyk_errors_total{class} (Counter): errors by class (client, server, rate_limit, network)
//
// Rate limit metrics (pkg/client):
//   - snyk_rate_limit_waits_total (Counter): 429-triggered waits
//   - snyk_rate_limit_wait_seconds (Histogram): duration of 429-triggered waits
//   - snyk_retry_exhausted_total (Counter): runs of the retry budget
//
// Cache metrics (pkg/cache):
//   - snyk_cache_hits_total (Counter): cache hits
//   - snyk_cache_misses_total (Counter): cache misses
//   - snyk_cache_errors_total{operation} (Counter): cache operation errors
//
// The CLI exposes these on --metrics-addr via promhttp for long runs.
