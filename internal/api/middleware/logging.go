package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Logging logs one line per request once the response is written.
// 5xx responses log at error level and 4xx at warn.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"duration_ms", time.Since(start).Milliseconds(),
					"bytes", ww.BytesWritten(),
				}
				if reqID := chimw.GetReqID(r.Context()); reqID != "" {
					attrs = append(attrs, "request_id", reqID)
				}

				switch {
				case status >= 500:
					logger.ErrorContext(r.Context(), "http request", attrs...)
				case status >= 400:
					logger.WarnContext(r.Context(), "http request", attrs...)
				default:
					logger.InfoContext(r.Context(), "http request", attrs...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
