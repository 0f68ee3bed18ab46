package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autopec_http_requests_total",
			Help: "Total HTTP requests handled by the repair API",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autopec_http_request_duration_seconds",
			Help:    "Duration of repair API HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Metrics records request counts and latencies per normalized route.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath replaces ids and registration numbers with placeholders so
// label cardinality stays bounded.
func normalizePath(path string) string {
	const prefix = "/api/repairs/"
	switch path {
	case "/", "/api", "/api/repairs", "/api/repairs/submit", "/health", "/metrics":
		return path
	}
	if !strings.HasPrefix(path, prefix) {
		return "other"
	}

	parts := strings.Split(strings.TrimPrefix(path, prefix), "/")
	switch {
	case len(parts) == 2 && parts[0] == "status":
		return prefix + "status/{status}"
	case len(parts) == 2 && parts[0] == "track":
		return prefix + "track/{registration}"
	case len(parts) == 2 && parts[1] == "status":
		return prefix + "{id}/status"
	case len(parts) == 1:
		return prefix + "{id}"
	}
	return "other"
}
