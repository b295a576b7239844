// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} expansion
//  2. Environment variables (fallback), optionally seeded from a .env file
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN)
//	m := matcher.NewMatcher(cfg.Detection.MatcherConfig())
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/subtrack/internal/domain/matcher"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Detection     DetectionConfig     `yaml:"detection"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite3" or "pgx"
	DSN    string `yaml:"dsn"`
}

// DetectionConfig holds the candidate finder and linking tolerances
type DetectionConfig struct {
	LookbackMonths       int     `yaml:"lookback_months"`
	MaxHistoryRows       int     `yaml:"max_history_rows"`
	AmountTolerance      float64 `yaml:"amount_tolerance"`
	PriceChangeTolerance float64 `yaml:"price_change_tolerance"`
	LinkTolerance        float64 `yaml:"link_tolerance"`
	LinkMinSimilarity    int     `yaml:"link_min_similarity"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" (bracketed console lines) or "json"
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TracingConfig holds OpenTelemetry exporter settings.
// An empty endpoint disables export.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	m := matcher.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8085,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    "subtrack.db",
		},
		Detection: DetectionConfig{
			LookbackMonths:       m.LookbackMonths,
			MaxHistoryRows:       m.MaxHistoryRows,
			AmountTolerance:      m.AmountTolerance.InexactFloat64(),
			PriceChangeTolerance: m.PriceChangeTolerance.InexactFloat64(),
			LinkTolerance:        m.LinkTolerance.InexactFloat64(),
			LinkMinSimilarity:    m.LinkMinSimilarity,
		},
		Auth: AuthConfig{
			Issuer:   "subtrack",
			TokenTTL: 24 * time.Hour,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
			Metrics: MetricsConfig{Enabled: true},
			Tracing: TracingConfig{ServiceName: "subtrack", SampleRatio: 1},
		},
	}
}

// Load reads and parses the config file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${JWT_SECRET})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	d := Default()
	return &Config{
		Server: ServerConfig{
			Host:            getEnv("SUBTRACK_HOST", d.Server.Host),
			Port:            getEnvInt("SUBTRACK_PORT", d.Server.Port),
			AllowedOrigins:  d.Server.AllowedOrigins,
			ShutdownTimeout: getEnvDuration("SUBTRACK_SHUTDOWN_TIMEOUT", d.Server.ShutdownTimeout),
		},
		Storage: StorageConfig{
			Driver: getEnv("SUBTRACK_DB_DRIVER", d.Storage.Driver),
			DSN:    getEnv("SUBTRACK_DB_DSN", d.Storage.DSN),
		},
		Detection: DetectionConfig{
			LookbackMonths:       getEnvInt("DETECTION_LOOKBACK_MONTHS", d.Detection.LookbackMonths),
			MaxHistoryRows:       getEnvInt("DETECTION_MAX_HISTORY_ROWS", d.Detection.MaxHistoryRows),
			AmountTolerance:      getEnvFloat("DETECTION_AMOUNT_TOLERANCE", d.Detection.AmountTolerance),
			PriceChangeTolerance: getEnvFloat("DETECTION_PRICE_CHANGE_TOLERANCE", d.Detection.PriceChangeTolerance),
			LinkTolerance:        getEnvFloat("DETECTION_LINK_TOLERANCE", d.Detection.LinkTolerance),
			LinkMinSimilarity:    getEnvInt("DETECTION_LINK_MIN_SIMILARITY", d.Detection.LinkMinSimilarity),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			Issuer:    getEnv("JWT_ISSUER", d.Auth.Issuer),
			TokenTTL:  getEnvDuration("JWT_TTL", d.Auth.TokenTTL),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", d.Observability.Logging.Level),
				Format: getEnv("LOG_FORMAT", d.Observability.Logging.Format),
			},
			Metrics: MetricsConfig{
				Enabled: getEnvBool("METRICS_ENABLED", d.Observability.Metrics.Enabled),
			},
			Tracing: TracingConfig{
				Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
				Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
				ServiceName: getEnv("OTEL_SERVICE_NAME", d.Observability.Tracing.ServiceName),
				SampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", d.Observability.Tracing.SampleRatio),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath loads .env if present, then tries the specified path,
// falling back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	// Missing .env is fine; existing env vars win
	_ = godotenv.Load()

	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate checks the settings needed to serve requests
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.Driver != "sqlite3" && c.Storage.Driver != "pgx" {
		errs = append(errs, fmt.Errorf("storage.driver must be sqlite3 or pgx, got %q", c.Storage.Driver))
	}
	if c.Storage.DSN == "" {
		errs = append(errs, errors.New("storage.dsn is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required (set JWT_SECRET)"))
	}
	if c.Detection.LookbackMonths <= 0 {
		errs = append(errs, errors.New("detection.lookback_months must be positive"))
	}
	if c.Detection.AmountTolerance < 0 || c.Detection.PriceChangeTolerance < 0 || c.Detection.LinkTolerance < 0 {
		errs = append(errs, errors.New("detection tolerances must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr returns host:port for the HTTP listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MatcherConfig converts detection settings into matcher configuration
func (d DetectionConfig) MatcherConfig() matcher.Config {
	return matcher.Config{
		AmountTolerance:      decimal.NewFromFloat(d.AmountTolerance),
		PriceChangeTolerance: decimal.NewFromFloat(d.PriceChangeTolerance),
		LinkTolerance:        decimal.NewFromFloat(d.LinkTolerance),
		LinkMinSimilarity:    d.LinkMinSimilarity,
		LookbackMonths:       d.LookbackMonths,
		MaxHistoryRows:       d.MaxHistoryRows,
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
