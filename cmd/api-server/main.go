package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/studio-booking/internal/api"
	"github.com/hackgods/studio-booking/internal/auth"
	"github.com/hackgods/studio-booking/internal/availability"
	"github.com/hackgods/studio-booking/internal/booking"
	"github.com/hackgods/studio-booking/internal/config"
	"github.com/hackgods/studio-booking/internal/db"
	"github.com/hackgods/studio-booking/internal/leads"
	"github.com/hackgods/studio-booking/internal/notify"
	"github.com/hackgods/studio-booking/internal/observability/metrics"
	redisclient "github.com/hackgods/studio-booking/internal/redis"
	"github.com/hackgods/studio-booking/internal/voice"
	"github.com/hackgods/studio-booking/pkg/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	logger.Info("api-server starting up", "env", cfg.Env, "http_port", cfg.HTTPPort, "timezone", cfg.BusinessTimezone, "version", version)

	if cfg.AdminEmail == "" {
		logger.Warn("ADMIN_EMAIL is not set, admin routes will return admin_not_configured")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection error", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Redis is optional: without it bookings rely on the exclusion constraint and
	// public writes are not rate limited.
	var (
		rdb     *redis.Client
		locker  redisclient.Locker = redisclient.NoopLocker{}
		limiter api.Limiter
	)
	rdb, err = redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.Warn("redis unavailable, continuing without slot locks and rate limiting", "error", err)
		rdb = nil
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("error closing redis", "error", err)
			}
		}()
		logger.Info("connected to Redis")
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
		limiter = redisclient.NewRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "rl:public", logger.Named("ratelimit"))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	availabilitySvc := availability.NewService(availability.NewPgRepository(pgPool), logger, m)
	bookingSvc := booking.NewService(
		booking.NewPgRepository(pgPool),
		availabilitySvc,
		locker,
		notify.NewSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger),
		booking.Settings{
			Location:     cfg.Location,
			SlotDuration: cfg.SlotDuration,
			AdminEmail:   cfg.AdminEmail,
		},
		logger,
		m,
	)
	leadsSvc := leads.NewService(leads.NewPgRepository(pgPool), logger, m)
	provisioner := voice.NewProvisioner(
		voice.NewRetellClient(cfg.RetellBaseURL, cfg.RetellAPIKey, logger.Named("retell")),
		voice.Config{APIKey: cfg.RetellAPIKey, DefaultAgentID: cfg.RetellAgentID},
		logger,
		m,
	)

	// Reconcile once so every weekday has a row before the first slot lookup.
	if _, err := availabilitySvc.Reconcile(rootCtx); err != nil {
		logger.Warn("initial availability reconcile failed", "error", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Booking:      bookingSvc,
		Availability: availabilitySvc,
		Intake:       leadsSvc,
		Voice:        provisioner,
		Auth: api.NewAuthMiddleware(
			auth.NewVerifier(cfg.AuthJWTSecret),
			auth.Config{AdminEmail: cfg.AdminEmail},
			logger,
		),
		Health:      api.NewHealthHandler(pgPool, rdb, cfg.Env, version),
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		RateLimiter: limiter,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", "error", err)
		}
	}

	logger.Info("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	bookingSvc.Wait()
}
