package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"artistry/internal/bootstrap"
	"artistry/internal/http/handlers"
	httpapi "artistry/internal/http/httpapi"
	"artistry/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "api").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build runtime")
	}
	defer rt.Close()

	app := handlers.App{
		Workflow:        rt.Orchestrator,
		Sessions:        rt.Backend.Stores.Sessions,
		PersistenceMode: cfg.PersistenceMode,
		Catalog:         rt.Catalog,
		Generator:       rt.Generator,
		MultiPass:       rt.MultiPass,
		Metrics:         rt.Metrics,
		Logger:          logger,
	}
	if rt.Artifacts != nil {
		app.Artifacts = rt.Artifacts
	}
	router := httpapi.NewRouter(handlers.NewApp(app), httpapi.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMin:    cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if waitErr := rt.Orchestrator.Wait(shutdownCtx); waitErr != nil {
			logger.Warn().Err(waitErr).Msg("in-flight jobs did not finish before shutdown")
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("server stopped")
}
