package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Catalog backends selectable through CATALOG_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CatalogBackend     string
	DatabaseURL        string
	RedisURL           string
	CatalogCacheTTL    time.Duration
	SeedFile           string
	ReceiptColumns     int
	MaxItemQuantity    int
	QuantityDecimals   int
	RateLimitCheckout  string
	BodyLimitBytes     int64
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
	SecurityHeaders    bool
	EnableHSTS         bool

	Breaker BreakerConfig
	Obs     ObsConfig
}

// BreakerConfig tunes the circuit breaker around remote catalog backends.
type BreakerConfig struct {
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
}

// ObsConfig groups logging, metrics and tracing settings.
type ObsConfig struct {
	LogFormat          string
	LogLevel           string
	MetricsNamespace   string
	EnablePrometheus   bool
	MetricsBucketsMS   string
	EnableTracing      bool
	TracingExporter    string
	OTLPEndpoint       string
	TracingSampleRatio float64
	ReadyProbeTimeout  time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CatalogBackend:     strings.ToLower(valueOrDefault(k.String("CATALOG_BACKEND"), BackendMemory)),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		SeedFile:           valueOrDefault(k.String("SEED_FILE"), "configs/supermarket.yaml"),
		ReceiptColumns:     parseInt(k.String("RECEIPT_COLUMNS"), 40),
		MaxItemQuantity:    parseInt(k.String("CHECKOUT_MAX_QUANTITY"), 10_000),
		QuantityDecimals:   parseInt(k.String("CHECKOUT_QUANTITY_DECIMALS"), 3),
		RateLimitCheckout:  valueOrDefault(k.String("RATE_LIMIT_CHECKOUT"), "120-M"),
		BodyLimitBytes:     int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		SecurityHeaders:    parseBool(k.String("SECURITY_HEADERS"), true),
		EnableHSTS:         parseBool(k.String("SECURITY_HSTS"), false),
		Breaker: BreakerConfig{
			MinRequests:  parseInt(k.String("BREAKER_MIN_REQUESTS"), 5),
			FailureRatio: parseFloat(k.String("BREAKER_FAILURE_RATIO"), 0.5),
			OpenFor:      parseDuration(k.String("BREAKER_OPEN_FOR"), "30s"),
		},
		Obs: ObsConfig{
			LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace:   valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "toko"),
			EnablePrometheus:   parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsBucketsMS:   k.String("OBS_METRICS_BUCKETS_MS"),
			EnableTracing:      parseBool(k.String("OBS_ENABLE_TRACING"), false),
			TracingExporter:    valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:       strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			TracingSampleRatio: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
			ReadyProbeTimeout:  parseDuration(k.String("HEALTH_READY_TIMEOUT"), "500ms"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CatalogBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for CATALOG_BACKEND=%s", c.CatalogBackend)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for CATALOG_BACKEND=%s", c.CatalogBackend)
		}
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q (want memory, redis or postgres)", c.CatalogBackend)
	}
	if c.ReceiptColumns < 20 {
		return fmt.Errorf("RECEIPT_COLUMNS must be at least 20, got %d", c.ReceiptColumns)
	}
	if c.MaxItemQuantity < 1 {
		return fmt.Errorf("CHECKOUT_MAX_QUANTITY must be positive, got %d", c.MaxItemQuantity)
	}
	if c.QuantityDecimals < 0 || c.QuantityDecimals > 6 {
		return fmt.Errorf("CHECKOUT_QUANTITY_DECIMALS must be in [0, 6], got %d", c.QuantityDecimals)
	}
	if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1], got %v", c.Breaker.FailureRatio)
	}
	return nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.AppEnv) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
