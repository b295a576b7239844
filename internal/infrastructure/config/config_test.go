package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  shutdown_timeout: 3s
storage:
  driver: pgx
  dsn: postgres://localhost/subtrack
detection:
  lookback_months: 12
auth:
  jwt_secret: s3cret
observability:
  logging:
    level: debug
    format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "pgx", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/subtrack", cfg.Storage.DSN)
	assert.Equal(t, 12, cfg.Detection.LookbackMonths)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)

	// Unset keys keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 2000, cfg.Detection.MaxHistoryRows)
	assert.InDelta(t, 0.10, cfg.Detection.AmountTolerance, 1e-9)
	assert.Equal(t, "subtrack", cfg.Auth.Issuer)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SUBTRACK_DB_DRIVER", "pgx")
	t.Setenv("SUBTRACK_DB_DSN", "postgres://db/subtrack")
	t.Setenv("SUBTRACK_PORT", "9999")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("DETECTION_AMOUNT_TOLERANCE", "0.2")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := LoadFromEnv()
	assert.Equal(t, "pgx", cfg.Storage.Driver)
	assert.Equal(t, "postgres://db/subtrack", cfg.Storage.DSN)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.InDelta(t, 0.2, cfg.Detection.AmountTolerance, 1e-9)
	assert.False(t, cfg.Observability.Metrics.Enabled)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("SUBTRACK_DB_DSN", "")
	t.Setenv("SUBTRACK_PORT", "not-a-number")

	cfg := LoadFromEnv()
	assert.Equal(t, "subtrack.db", cfg.Storage.DSN)
	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, 24, cfg.Detection.LookbackMonths)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	// Test fallback when config file doesn't exist
	t.Setenv("SUBTRACK_DB_DSN", "fallback.db")

	cfg := LoadOrEnv_WithPath("nonexistent.yaml")
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DSN)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_DB_DSN", "expanded.db")
	t.Setenv("TEST_JWT_SECRET", "expanded-secret")

	path := writeConfig(t, `
storage:
  dsn: "${TEST_DB_DSN}"
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DSN)
	assert.Equal(t, "expanded-secret", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	t.Run("defaults need a secret", func(t *testing.T) {
		cfg := Default()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	t.Run("valid", func(t *testing.T) {
		cfg := Default()
		cfg.Auth.JWTSecret = "secret"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad driver and empty dsn", func(t *testing.T) {
		cfg := Default()
		cfg.Auth.JWTSecret = "secret"
		cfg.Storage.Driver = "mysql"
		cfg.Storage.DSN = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.driver")
		assert.Contains(t, err.Error(), "storage.dsn")
	})
}

func TestMatcherConfig(t *testing.T) {
	cfg := Default()
	m := cfg.Detection.MatcherConfig()

	assert.True(t, m.AmountTolerance.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, m.PriceChangeTolerance.Equal(decimal.RequireFromString("0.03")))
	assert.True(t, m.LinkTolerance.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, 70, m.LinkMinSimilarity)
	assert.Equal(t, 24, m.LookbackMonths)
}

func TestServerAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8085", ServerConfig{Host: "127.0.0.1", Port: 8085}.Addr())
}
