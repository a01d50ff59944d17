package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"server/internal/adapter/repo"
	"server/internal/infra"
	"server/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "reconciler")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("reconciler: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	sweep := service.NewReconciler(
		repo.NewProjectRepository(runner),
		repo.NewExpenseRepository(runner),
		repo.NewStatsRepository(runner),
		logger,
	)

	// One pass up front so a restart never waits a full interval.
	if err := sweep.RunOnce(ctx); err != nil {
		logger.Error().Err(err).Msg("initial sweep failed")
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", cfg.ReconcileInterval)
	if _, err := c.AddFunc(spec, func() {
		if err := sweep.RunOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("sweep failed")
		}
	}); err != nil {
		logger.Fatal().Err(err).Str("spec", spec).Msg("invalid schedule")
	}

	c.Start()
	logger.Info().Str("interval", cfg.ReconcileInterval.String()).Msg("reconciler started")

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info().Msg("reconciler stopped")
}
