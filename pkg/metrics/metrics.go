// Package metrics provides the centralized Prometheus metrics registry for
// the service. All metrics are defined in their respective packages (prices,
// cache, purchase, server) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Upstream Metrics (pkg/prices):
//   - skinport_upstream_requests_total{outcome} (Counter): Upstream fetches by outcome (success, timeout, error)
//   - skinport_upstream_request_duration_seconds (Histogram): Upstream fetch duration
//   - skinport_fallback_hits_total (Counter): Requests answered from the embedded fallback dataset
//
// Cache Metrics (pkg/cache):
//   - skinport_cache_hits_total (Counter): Cache hits
//   - skinport_cache_misses_total (Counter): Cache misses
//   - skinport_cache_errors_total{operation} (Counter): Cache operation errors by operation (get, set, delete)
//
// Purchase Metrics (pkg/purchase):
//   - purchases_total{outcome} (Counter): Purchase attempts by outcome (success or failure kind)
//   - purchase_duration_seconds (Histogram): End-to-end purchase transaction duration
//
// HTTP Metrics (internal/server):
//   - http_request_duration_seconds{path, status} (Histogram): Request duration by route and HTTP status
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(skinport_cache_hits_total[5m])) /
//   (sum(rate(skinport_cache_hits_total[5m])) + sum(rate(skinport_cache_misses_total[5m])))
//
//   # Fallback Usage
//   rate(skinport_fallback_hits_total[5m])
//
//   # Purchase Failure Rate
//   sum(rate(purchases_total{outcome!="success"}[5m])) / sum(rate(purchases_total[5m]))
//
//   # P95 Upstream Latency
//   histogram_quantile(0.95, rate(skinport_upstream_request_duration_seconds_bucket[5m]))
