package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HTTPRecorder receives one observation per request
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics records request counts and latency labelled by route pattern,
// so path parameters do not explode label cardinality.
func Metrics(recorder HTTPRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			recorder.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}
