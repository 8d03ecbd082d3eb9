// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Product catalog backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv             string `env:"APP_ENV" envDefault:"dev"`
	Port               int    `env:"PORT" envDefault:"8080"`
	OTLPEndpoint       string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"api-telemetry"`
	OTELServiceVersion string `env:"OTEL_SERVICE_VERSION" envDefault:"1.0.0"`
	// OTELSamplingRatio overrides the environment-derived sampling ratio when > 0.
	OTELSamplingRatio float64 `env:"OTEL_SAMPLING_RATIO" envDefault:"0"`
	CORSAllowOrigins  string  `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin   int     `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	// ProductsSeedFile points at a YAML list of product names. Empty means the built-in catalog.
	ProductsSeedFile string `env:"PRODUCTS_SEED_FILE"`
	// ProductsBackend selects the catalog store: "memory" or "redis".
	ProductsBackend  string `env:"PRODUCTS_BACKEND" envDefault:"memory"`
	RedisURL         string `env:"REDIS_URL"`
	ProductsRedisKey string `env:"PRODUCTS_REDIS_KEY" envDefault:"products"`
	// Request/response capture
	CaptureMaxBodyBytes int `env:"CAPTURE_MAX_BODY_BYTES" envDefault:"65536"`
	// CaptureMaxRequestBytes bounds request bodies buffered for capture. 0 disables the bound.
	CaptureMaxRequestBytes int64    `env:"CAPTURE_MAX_REQUEST_BYTES" envDefault:"1048576"`
	CaptureNormalizeJSON   bool     `env:"CAPTURE_NORMALIZE_JSON" envDefault:"false"`
	CaptureRedactHeaders   []string `env:"CAPTURE_REDACT_HEADERS" envSeparator:"," envDefault:"Authorization,Cookie"`
	// Server
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	if cfg.CaptureMaxBodyBytes < 0 {
		return Config{}, fmt.Errorf("op=config.Load: CAPTURE_MAX_BODY_BYTES must be >= 0, got %d", cfg.CaptureMaxBodyBytes)
	}
	if cfg.CaptureMaxRequestBytes < 0 {
		return Config{}, fmt.Errorf("op=config.Load: CAPTURE_MAX_REQUEST_BYTES must be >= 0, got %d", cfg.CaptureMaxRequestBytes)
	}
	if cfg.OTELSamplingRatio < 0 || cfg.OTELSamplingRatio > 1 {
		return Config{}, fmt.Errorf("op=config.Load: OTEL_SAMPLING_RATIO must be within [0,1], got %v", cfg.OTELSamplingRatio)
	}
	switch cfg.ProductsBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("op=config.Load: REDIS_URL is required when PRODUCTS_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("op=config.Load: unknown PRODUCTS_BACKEND %q", cfg.ProductsBackend)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// SamplingRatio returns the trace sampling ratio: the explicit override when set,
// otherwise 10% in production and 100% everywhere else.
func (c Config) SamplingRatio() float64 {
	if c.OTELSamplingRatio > 0 {
		return c.OTELSamplingRatio
	}
	if c.IsProd() {
		return 0.1
	}
	return 1.0
}
