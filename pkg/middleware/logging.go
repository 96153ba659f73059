package middleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
)

// Logging attaches a request-scoped logger to the context and writes one
// access log line per request once the handler returns.
func Logging(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := observability.WithTraceContext(r.Context(), logger)
			if id := observability.GetRequestID(r.Context()); id != "" {
				reqLogger = reqLogger.WithField("request_id", id)
			}
			r = r.WithContext(observability.WithLogger(r.Context(), reqLogger))

			m := httpsnoop.CaptureMetrics(next, w, r)

			entry := reqLogger.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      m.Code,
				"bytes":       m.Written,
				"duration_ms": m.Duration.Milliseconds(),
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.UserAgent(),
			})

			switch {
			case m.Code >= 500:
				entry.Error("request failed")
			case m.Code >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request completed")
			}
		})
	}
}
