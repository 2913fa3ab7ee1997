package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/studio-booking/internal/availability"
	"github.com/hackgods/studio-booking/internal/booking"
	"github.com/hackgods/studio-booking/internal/config"
	"github.com/hackgods/studio-booking/internal/db"
	"github.com/hackgods/studio-booking/pkg/logging"
)

// completion-worker marks confirmed appointments whose end time has passed as completed.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Error("config load error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel).Named("completion-worker")
	logger.Info("completion worker starting up", "env", cfg.Env, "interval", cfg.WorkerInterval)

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

	svc := booking.NewService(
		booking.NewPgRepository(pgPool),
		availability.NewService(availability.NewPgRepository(pgPool), logger, nil),
		nil,
		nil,
		booking.Settings{Location: cfg.Location, SlotDuration: cfg.SlotDuration},
		logger,
		nil,
	)

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping completion worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, logger *logging.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.CompletePast(runCtx)
	if err != nil {
		logger.Error("completion run error", "error", err)
		return
	}
	logger.Info("completion run complete", "completed", n, "duration", time.Since(start))
}
