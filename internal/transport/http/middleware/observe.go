package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/signal-otp-api/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// UsageRecorder counts served requests for usage statistics.
type UsageRecorder interface {
	Record(endpoint string, responseTimeMs int64, success bool)
}

// Observe writes one access-log line per request, feeds the request metrics
// and records usage. /metrics scrapes are not counted as usage.
func Observe(logger *zap.Logger, m *metrics.Metrics, usage UsageRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			m.Request(route, status, elapsed)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			)

			if usage != nil && r.URL.Path != "/metrics" {
				usage.Record(r.URL.Path, elapsed.Milliseconds(), status < http.StatusBadRequest)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
