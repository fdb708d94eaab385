package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:8081"`
	TablePrefix string `env:"TABLE_PREFIX"`
	DatabaseURL string `env:"SUPABASE_DB_URL"`
	// ListenURL is a session-mode connection for LISTEN. Defaults to DatabaseURL.
	ListenURL string `env:"SUPABASE_DB_LISTEN_URL"`

	// Identity
	AuthProvider    string        `env:"AUTH_PROVIDER" envDefault:"supabase"` // "supabase" or "local"
	SupabaseURL     string        `env:"SUPABASE_URL"`
	SupabaseKey     string        `env:"SUPABASE_KEY"`
	SupabaseJWKSURL string        // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	JWTSecret       string        `env:"JWT_SECRET"` // HS256 signing key for the local provider
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// SupabaseServiceKey is only used by cmd/seed to create identities
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`

	// Redis backs login throttling and the token deny-list
	RedisAddr          string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisDB            int           `env:"REDIS_DB" envDefault:"0"`
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginAttemptWindow time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"15m"`

	// Events (empty URL disables publishing)
	RabbitMQURL string `env:"RABBITMQ_URL"`
	WorkerQueue string `env:"WORKER_QUEUE" envDefault:"sitetrack.notifications"`

	// WorkerMetricsPort serves /metrics from cmd/worker. Empty disables it.
	WorkerMetricsPort string `env:"WORKER_METRICS_PORT" envDefault:"9091"`

	// Media CDN
	CloudinaryCloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryUploadPreset string `env:"CLOUDINARY_UPLOAD_PRESET"`
	CloudinaryAPIURL       string `env:"CLOUDINARY_API_URL" envDefault:"https://api.cloudinary.com"`
	CloudinaryDeliveryURL  string `env:"CLOUDINARY_DELIVERY_URL" envDefault:"https://res.cloudinary.com"`

	// Logging
	LogDir      string `env:"LOG_DIR"`
	LogMaxFiles int    `env:"LOG_MAX_FILES" envDefault:"10"`

	// Debug flags
	Debug bool // Enables debug logging and verbose subscription traces
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.TablePrefix == "" {
		cfg.TablePrefix = getTablePrefix(cfg.Environment)
	}
	cfg.SupabaseURL = strings.TrimRight(cfg.SupabaseURL, "/")
	if cfg.SupabaseURL != "" {
		cfg.SupabaseJWKSURL = cfg.SupabaseURL + "/auth/v1/.well-known/jwks.json"
	}
	if cfg.ListenURL == "" {
		cfg.ListenURL = cfg.DatabaseURL
	}

	cfg.Debug = getEnv("DEBUG", getDefaultDebug(cfg.Environment)) == "true"

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDev reports whether the server runs in the dev environment
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("SUPABASE_DB_URL is required")
	}

	switch c.AuthProvider {
	case "supabase":
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when AUTH_PROVIDER=supabase")
		}
	case "local":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_PROVIDER=local")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}
	return nil
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
