package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eshaffer321/subtrack/internal/api"
	"github.com/eshaffer321/subtrack/internal/infrastructure/auth"
	"github.com/eshaffer321/subtrack/internal/infrastructure/config"
	"github.com/eshaffer321/subtrack/internal/infrastructure/logging"
	"github.com/eshaffer321/subtrack/internal/infrastructure/tracing"
)

// RunServe runs the API server until ctx is cancelled or SIGINT/SIGTERM arrives.
func RunServe(ctx context.Context, cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	if flags.Port != 0 {
		cfg.Server.Port = flags.Port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tp, err := tracing.Setup(ctx, cfg.Observability.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown error", slog.Any("error", err))
		}
	}()

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	server := api.NewServer(api.ConfigFrom(cfg.Server), api.Deps{
		Repo:          app.Store,
		Detection:     app.Detection,
		Subscriptions: app.Subscriptions,
		Tokens:        auth.NewTokenService(cfg.Auth),
		Metrics:       app.Metrics,
	}, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
