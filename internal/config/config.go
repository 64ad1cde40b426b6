package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	MongoURI           string
	MongoDatabase      string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	CurrencyCode      string
	GatewayTimeout    time.Duration

	// Pricing parameters. Threshold is in minor currency units; rates are in
	// basis points so the math stays on integers end to end.
	DiscountThreshold int64
	DiscountRateBPS   int
	TaxRateBPS        int

	PaymentOrderTTL time.Duration
	AccessTokenTTL  time.Duration
	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration

	LoginRateMax    int64
	LoginRateWindow time.Duration
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
		MongoURI:           k.String("MONGODB_URI"),
		MongoDatabase:      valueOrDefault(k.String("DATABASE_NAME"), "store"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RazorpayKeyID:      k.String("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:  k.String("RAZORPAY_KEY_SECRET"),
		RazorpayBaseURL:    valueOrDefault(k.String("RAZORPAY_BASE_URL"), "https://api.razorpay.com"),
		CurrencyCode:       valueOrDefault(k.String("CURRENCY_CODE"), "INR"),
		GatewayTimeout:     parseDuration(k.String("GATEWAY_TIMEOUT"), "10s"),
		DiscountThreshold:  parseInt64(k.String("PRICING_DISCOUNT_THRESHOLD"), 100_000),
		DiscountRateBPS:    parseInt(k.String("PRICING_DISCOUNT_RATE_BPS"), 1000),
		TaxRateBPS:         parseInt(k.String("PRICING_TAX_RATE_BPS"), 500),
		PaymentOrderTTL:    parseDuration(k.String("PAYMENT_ORDER_TTL"), "30m"),
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		LoginRateMax:       parseInt64(k.String("LOGIN_RATE_MAX"), 20),
		LoginRateWindow:    parseDuration(k.String("LOGIN_RATE_WINDOW"), "1m"),
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGODB_URI is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.RazorpayKeySecret == "" {
		return nil, errors.New("RAZORPAY_KEY_SECRET is required")
	}
	if cfg.DiscountRateBPS < 0 || cfg.DiscountRateBPS > 10_000 {
		return nil, errors.New("PRICING_DISCOUNT_RATE_BPS must be between 0 and 10000")
	}
	if cfg.TaxRateBPS < 0 {
		return nil, errors.New("PRICING_TAX_RATE_BPS must be non-negative")
	}

	return cfg, nil
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
	if strings.TrimSpace(value) != "" {
		return value
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

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
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
