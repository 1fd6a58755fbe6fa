package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinSecretKeyLength is the minimum accepted length of SECRET_KEY.
const MinSecretKeyLength = 32

const defaultSecretKey = "your-secret-key-change-in-production"

// Config holds application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Email     EmailConfig
	Limits    LimitsConfig
	Scheduler SchedulerConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"Lumen AI API"`
	Version     string `env:"APP_VERSION" envDefault:"1.0.0"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Port        string `env:"PORT" envDefault:"8000"`
	Host        string `env:"HOST" envDefault:"0.0.0.0"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that overwrites those headers.
	TrustProxy  bool   `env:"TRUST_PROXY" envDefault:"false"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envDefault:"sqlite:///./lumenai.db"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	SecretKey          string `env:"SECRET_KEY" envDefault:"your-secret-key-change-in-production"`
	TokenExpiryMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"1440"`
	BootstrapEmail     string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapPassword  string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_HOSTS" envSeparator:"," envDefault:"*"`
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int `env:"CORS_MAX_AGE" envDefault:"86400"`
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	Enabled    bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	SMTPHost   string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort   int    `env:"SMTP_PORT" envDefault:"587"`
	Username   string `env:"SMTP_USERNAME"`
	Password   string `env:"SMTP_PASSWORD"`
	FromEmail  string `env:"EMAIL_FROM" envDefault:"noreply@lumen-ai.example"`
	FromName   string `env:"EMAIL_FROM_NAME" envDefault:"Lumen AI"`
	AdminEmail string `env:"ADMIN_NOTIFICATION_EMAIL" envDefault:"hello@lumen-ai.example"`
}

// LimitsConfig holds per-client rate limits for public write endpoints.
type LimitsConfig struct {
	PublicRatePerSecond float64 `env:"PUBLIC_RATE_LIMIT" envDefault:"0.5"`
	PublicBurst         int     `env:"PUBLIC_RATE_BURST" envDefault:"5"`
}

// SchedulerConfig holds maintenance job configuration.
type SchedulerConfig struct {
	CleanupSchedule string `env:"CLEANUP_SCHEDULE" envDefault:"@every 1h"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}
	cfg.CORS.AllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Auth.SecretKey == "" || cfg.Auth.SecretKey == defaultSecretKey {
		return fmt.Errorf("SECRET_KEY must be set and changed from default value")
	}
	if len(cfg.Auth.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("SECRET_KEY must be at least %d characters", MinSecretKeyLength)
	}
	if cfg.Auth.TokenExpiryMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be greater than 0")
	}
	if cfg.Limits.PublicRatePerSecond <= 0 || cfg.Limits.PublicBurst <= 0 {
		return fmt.Errorf("PUBLIC_RATE_LIMIT and PUBLIC_RATE_BURST must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Addr returns the listen address in host:port form.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// TokenTTL returns the bearer token validity window.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpiryMinutes) * time.Minute
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://")
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}
