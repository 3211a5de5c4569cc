package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/signal-otp-api/internal/application/dispatch"
	"github.com/signal-otp-api/internal/application/session"
	"github.com/signal-otp-api/internal/infrastructure/forwarder"
	"github.com/signal-otp-api/internal/infrastructure/memory"
	"github.com/signal-otp-api/internal/infrastructure/metrics"
	"github.com/signal-otp-api/internal/pkg/clock"
	appmiddleware "github.com/signal-otp-api/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// Deps holds everything the router wires into services and handlers.
type Deps struct {
	Logger  *zap.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	OTPStore   *memory.OTPStore
	Payloads   *memory.PayloadRepo
	Activities *memory.ActivityLog
	Outbound   *memory.OutboundLog
	Usage      *memory.UsageTracker

	Notifier  dispatch.Sender
	Forwarder *forwarder.Forwarder
	Sessions  session.Service

	// LoginLimiter throttles /api/auth/login. A default limiter is built when nil.
	LoginLimiter *appmiddleware.RateLimiter
}
