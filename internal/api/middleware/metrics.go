package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/eshaffer321/subtrack/internal/infrastructure/metrics"
)

// Metrics records request counts and latency per route template, so ids in
// the path do not explode label cardinality.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := routePattern(r)
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(r.Method, route, strconv.Itoa(sw.status), time.Since(start))
		})
	}
}
