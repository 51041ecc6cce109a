package middleware

import (
	"net/http"
	"time"

	"github.com/mcoot/golfclub/internal/metrics"
)

// Metrics records request latency by route template
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := NewResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			m.ObserveHTTP(r.Method, RouteTemplate(r), wrapped.status, time.Since(start))
		})
	}
}
