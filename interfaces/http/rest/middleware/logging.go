package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"decisionmap/pkg/common"
)

// RequestContext copies chi's request id into the application context and
// echoes it back in X-Request-ID.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := common.WithStartTime(r.Context(), time.Now())
		if id := middleware.GetReqID(ctx); id != "" {
			ctx = common.WithRequestID(ctx, id)
			w.Header().Set("X-Request-ID", id)
			r.Header.Set("X-Request-ID", id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger creates a logging middleware. Durations are measured from
// RequestContext.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", common.GetElapsedTime(r.Context())),
				zap.String("requestID", middleware.GetReqID(r.Context())),
				zap.String("remoteAddr", r.RemoteAddr),
			}
			switch {
			case ww.Status() >= 500:
				logger.Error("HTTP Request", fields...)
			case r.URL.Path == "/health" || r.URL.Path == "/metrics":
				logger.Debug("HTTP Request", fields...)
			default:
				logger.Info("HTTP Request", fields...)
			}
		})
	}
}
