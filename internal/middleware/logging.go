package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LoggingMiddleware logs one line per request. Form values are never
// logged: /analyze and /login carry the caller's key. Server errors are
// tagged level=error so they stand out from rejected uploads.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		level := "info"
		switch {
		case wrapped.statusCode >= 500:
			level = "error"
		case wrapped.statusCode >= 400:
			level = "warn"
		}

		log.Printf(
			"level=%s request_id=%s method=%s route=%s status=%d duration=%s bytes=%d ip=%s",
			level,
			chimw.GetReqID(r.Context()),
			r.Method,
			route,
			wrapped.statusCode,
			time.Since(start),
			wrapped.written,
			ClientIP(r),
		)
	})
}
