package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"artistry/internal/bootstrap"
	"artistry/internal/infra"
	"artistry/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()
	if cfg.Stateless() {
		logger.Fatal().Msg("worker: a persistence mode is required (PERSISTENCE_MODE=postgres|sqlite)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger, infra.DispatchQueue)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to build runtime")
	}
	defer rt.Close()

	worker := workflow.NewWorker(rt.Backend.Stores.Claimer, rt.Orchestrator, logger, cfg.WorkerPollInterval)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker: stopped with error")
		return
	}
	logger.Info().Msg("worker: stopped")
}
