package middleware

import (
	"net/http"
	"time"

	"github.com/josh-kwaku/overdraft-ledger/internal/metrics"
)

// Metrics records request counts and latency per route. It must wrap the
// ServeMux itself so the matched pattern is visible after the call.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.ObserveHTTP(r.Method, routeLabel(r), rec.status, time.Since(start))
		})
	}
}
