package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/eshaffer321/subtrack/internal/infrastructure/storage/migrations"
)

// gooseDialect maps a driver name to the goose dialect
func gooseDialect(driver string) goose.Dialect {
	if driver == DriverPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// newMigrationProvider builds a goose provider over the embedded migrations
func (s *Storage) newMigrationProvider() (*goose.Provider, error) {
	provider, err := goose.NewProvider(gooseDialect(s.driver), s.db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations(ctx context.Context) error {
	provider, err := s.newMigrationProvider()
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	for _, r := range results {
		slog.Info("Applied migration",
			"version", r.Source.Version,
			"file", r.Source.Path,
			"duration", r.Duration)
	}
	return nil
}

// SchemaVersion returns the latest applied migration version
func (s *Storage) SchemaVersion(ctx context.Context) (int64, error) {
	provider, err := s.newMigrationProvider()
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}
