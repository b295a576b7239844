package cli

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/subtrack/internal/application/service"
	"github.com/eshaffer321/subtrack/internal/domain/matcher"
	"github.com/eshaffer321/subtrack/internal/infrastructure/config"
	"github.com/eshaffer321/subtrack/internal/infrastructure/metrics"
	"github.com/eshaffer321/subtrack/internal/infrastructure/storage"
)

// App is the wired core shared by every command.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Store         *storage.Storage
	Metrics       *metrics.Metrics // nil when metrics are disabled
	Detection     *service.DetectionService
	Subscriptions *service.SubscriptionService
}

// NewApp opens storage (running migrations) and builds the services.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New()
	}

	match := matcher.NewMatcher(cfg.Detection.MatcherConfig())
	return &App{
		Config:        cfg,
		Logger:        logger,
		Store:         store,
		Metrics:       m,
		Detection:     service.NewDetectionService(store, match, m, logger.With("system", "detection")),
		Subscriptions: service.NewSubscriptionService(store, m, logger.With("system", "subscriptions")),
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}

// LoadConfig reads path when given, otherwise config.yaml or the environment
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrEnv(), nil
	}
	return config.Load(path)
}
