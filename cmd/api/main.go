package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/signal-otp-api/internal/application/dispatch"
	"github.com/signal-otp-api/internal/application/session"
	"github.com/signal-otp-api/internal/config"
	"github.com/signal-otp-api/internal/infrastructure/forwarder"
	jwtinfra "github.com/signal-otp-api/internal/infrastructure/jwt"
	"github.com/signal-otp-api/internal/infrastructure/memory"
	"github.com/signal-otp-api/internal/infrastructure/metrics"
	"github.com/signal-otp-api/internal/infrastructure/onesignal"
	"github.com/signal-otp-api/internal/infrastructure/sns"
	"github.com/signal-otp-api/internal/pkg/clock"
	transporthttp "github.com/signal-otp-api/internal/transport/http"
	appmiddleware "github.com/signal-otp-api/internal/transport/http/middleware"
	"github.com/signal-otp-api/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	clk := clock.Real{}

	otpStore := memory.NewOTPStore(memory.OTPStoreOptions{
		TTL:           cfg.OTP.TTL,
		MaxAttempts:   cfg.OTP.MaxAttempts,
		GraceDelay:    cfg.OTP.GraceDelay,
		SweepInterval: cfg.OTP.SweepInterval,
		Clock:         clk,
		Logger:        logger.Named("otp-store"),
		OnPurge:       m.Purged,
	})
	otpStore.Start()

	payloads := memory.NewPayloadRepo(clk, logger.Named("payloads"))
	activities := memory.NewActivityLog(cfg.ActivityCapacity, clk)
	outbound := memory.NewOutboundLog(cfg.ActivityCapacity, clk)
	usage := memory.NewUsageTracker(cfg.UsageCapacity, clk)
	sessionRepo := memory.NewSessionRepo(clk)

	janitors := []*worker.Janitor{
		worker.NewJanitor("payload-cleanup", cfg.PayloadCleanupInterval, func() int {
			return payloads.CleanupOlderThan(cfg.PayloadMaxAge)
		}, logger),
		worker.NewJanitor("activity-cleanup", cfg.ActivityCleanupInterval, func() int {
			return activities.CleanupOlderThan(cfg.PayloadMaxAge) + outbound.CleanupOlderThan(cfg.PayloadMaxAge)
		}, logger),
		worker.NewJanitor("session-purge", time.Hour, sessionRepo.PurgeExpired, logger),
	}
	for _, j := range janitors {
		j.Start()
	}

	secret := cfg.SessionSecret
	if secret == "" {
		if secret, err = jwtinfra.NewSecret(); err != nil {
			logger.Fatal("session secret", zap.Error(err))
		}
		logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	tokens, err := jwtinfra.NewProvider(secret, cfg.SessionTTL, clk)
	if err != nil {
		logger.Fatal("token provider", zap.Error(err))
	}
	sessions, err := session.NewService(cfg.AdminPassword, sessionRepo, tokens, cfg.SessionTTL, clk, logger.Named("session"))
	if err != nil {
		logger.Fatal("session service", zap.Error(err))
	}
	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD not set, admin login is disabled")
	}

	notifier, err := newNotifier(context.Background(), cfg, outbound, clk, logger)
	if err != nil {
		logger.Fatal("notifier", zap.String("kind", cfg.Notifier), zap.Error(err))
	}

	loginLimiter := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	deps := &transporthttp.Deps{
		Logger:       logger,
		Clock:        clk,
		Metrics:      m,
		Gatherer:     reg,
		OTPStore:     otpStore,
		Payloads:     payloads,
		Activities:   activities,
		Outbound:     outbound,
		Usage:        usage,
		Notifier:     notifier,
		Forwarder:    forwarder.New(cfg.ForwardTimeout, cfg.ForwardRate, outbound, clk, logger.Named("forwarder")),
		Sessions:     sessions,
		LoginLimiter: loginLimiter,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("env", cfg.AppEnv),
			zap.String("notifier", cfg.Notifier),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	for _, j := range janitors {
		j.Stop()
	}
	otpStore.Stop()
	loginLimiter.Stop()
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}

func newNotifier(ctx context.Context, cfg *config.Config, outbound *memory.OutboundLog, clk clock.Clock, logger *zap.Logger) (dispatch.Sender, error) {
	switch cfg.Notifier {
	case "onesignal":
		return onesignal.NewSender(cfg.OneSignal, &http.Client{Timeout: cfg.ForwardTimeout}, outbound, clk, logger.Named("onesignal")), nil
	case "sns":
		s, err := sns.NewSender(ctx, cfg.SNSRegion, outbound, logger.Named("sns"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "log", "":
		return dispatch.NewLogSender(logger.Named("notifier")), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}
}
