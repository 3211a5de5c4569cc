package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signal-otp-api/internal/application/dispatch"
	"github.com/signal-otp-api/internal/application/otp"
	"github.com/signal-otp-api/internal/application/payload"
	"github.com/signal-otp-api/internal/config"
	"github.com/signal-otp-api/internal/pkg/clock"
	"github.com/signal-otp-api/internal/transport/http/handler"
	appmiddleware "github.com/signal-otp-api/internal/transport/http/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	var usage appmiddleware.UsageRecorder
	if deps.Usage != nil {
		usage = deps.Usage
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Observe(logger, deps.Metrics, usage))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 per client on the login endpoint.
	loginRL := deps.LoginLimiter
	if loginRL == nil {
		loginRL = appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	}
	track := appmiddleware.Track(deps.Activities)
	authMw := appmiddleware.RequireSession(deps.Sessions)

	dispatchSvc := dispatch.NewService(deps.OTPStore, deps.Notifier, deps.Activities, deps.Metrics, logger.Named("dispatch"))
	otpSvc := otp.NewService(deps.OTPStore, deps.Metrics, logger.Named("otp"))
	payloadSvc := payload.NewService(
		deps.Payloads, deps.Activities, deps.Outbound, deps.Usage,
		dispatchSvc, deps.Forwarder,
		payload.Options{
			MaxAge:                  cfg.PayloadMaxAge,
			PayloadCleanupInterval:  cfg.PayloadCleanupInterval,
			ActivityCleanupInterval: cfg.ActivityCleanupInterval,
		},
		clk, logger.Named("payload"),
	)

	healthH := handler.NewHealthHandler(clk)
	ingestH := handler.NewIngestHandler(payloadSvc, otpSvc, clk)
	verifyH := handler.NewVerificationHandler(otpSvc, clk)
	payloadH := handler.NewPayloadHandler(payloadSvc, clk)
	sessionH := handler.NewSessionHandler(deps.Sessions, cfg.IsProduction(), logger.Named("session"))

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health", healthH.Health)

		r.With(track).Post("/webhook", ingestH.Webhook)
		r.With(track).Get("/mobile/data", ingestH.MobileInfo)
		r.With(track).Post("/mobile/data", ingestH.MobileData)
		r.With(track).Post("/verify-otp", verifyH.Verify)
		r.Get("/verify-otp", verifyH.Status)
		r.Get("/otp-stats", verifyH.Stats)

		r.Get("/test-signal-post", ingestH.TestSignalPostInfo)
		r.Post("/test-signal-post", ingestH.TestSignalPost)
		r.Post("/process", ingestH.Process)
		r.Get("/external", payloadH.External)

		r.With(loginRL.Limit).Post("/auth/login", sessionH.Login)
		r.Post("/auth/logout", sessionH.Logout)
		r.Get("/auth/check", sessionH.Check)

		// ── Admin routes ─────────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/payloads", payloadH.List)
			r.Get("/payloads/{id}", payloadH.Get)
			r.Get("/activities", payloadH.Activities)
			r.Get("/outbound-activities", payloadH.OutboundActivities)
			r.Get("/usage", payloadH.Usage)
			r.Get("/cleanup", payloadH.CleanupStats)
			r.Post("/cleanup", payloadH.Cleanup)
			r.Post("/forward", payloadH.Forward)
			r.Post("/auto-forward", payloadH.AutoForward)
		})
	})

	return r
}
