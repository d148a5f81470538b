// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-in-production"

// Store backends
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// Email providers
const (
	EmailResend = "resend"
	EmailSMTP   = "smtp"
	EmailLog    = "log"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port           int
	Environment    string // "development" | "staging" | "production"
	RequestTimeout time.Duration

	// Administrator identity, compared for equality against the caller
	AdminUserID string

	// Storage
	StoreBackend  string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	// Security
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPM   int

	// Redis (for rate limiting); empty disables the shared limiter
	RedisURL string

	// Identity provider
	ClerkSecretKey string

	Email EmailConfig
}

// EmailConfig configures the administrative notifier
type EmailConfig struct {
	Provider     string
	FromAddress  string
	AdminAddress string

	ResendAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		Environment:    getEnv("ENVIRONMENT", "development"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		AdminUserID: getEnv("ADMIN_USER_ID", ""),

		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", StorePostgres)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "chat"),

		JWTSecret:      getEnv("JWT_SECRET", devJWTSecret),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 60),

		RedisURL: getEnv("REDIS_URL", ""),

		ClerkSecretKey: getEnv("CLERK_SECRET_KEY", ""),

		Email: EmailConfig{
			Provider:     strings.ToLower(getEnv("EMAIL_PROVIDER", EmailLog)),
			FromAddress:  getEnv("EMAIL_FROM", "reports@localhost"),
			AdminAddress: getEnv("ADMIN_EMAIL", ""),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the settings every command needs: the store and the
// notifier. Server-only settings are checked by ValidateServer.
func (c *Config) validate() error {
	switch c.StoreBackend {
	case StorePostgres, StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.Email.Provider {
	case EmailResend, EmailSMTP, EmailLog:
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
	}

	// Validate required fields in production
	if !c.IsProduction() {
		return nil
	}
	if c.StoreBackend == StoreMemory {
		return fmt.Errorf("STORE_BACKEND=memory is not allowed in production")
	}
	if c.StoreBackend == StorePostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required in production")
	}
	if c.StoreBackend == StoreMongo && c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required in production")
	}
	if c.Email.AdminAddress == "" {
		return fmt.Errorf("ADMIN_EMAIL is required in production")
	}
	switch c.Email.Provider {
	case EmailLog:
		return fmt.Errorf("EMAIL_PROVIDER=log is not allowed in production; use resend or smtp")
	case EmailResend:
		if c.Email.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
	case EmailSMTP:
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER=smtp")
		}
	}
	return nil
}

// ValidateServer checks the settings only the HTTP server needs: the
// administrator id and caller authentication. The reminder job skips it.
func (c *Config) ValidateServer() error {
	if !c.IsProduction() {
		return nil
	}
	if c.AdminUserID == "" {
		return fmt.Errorf("ADMIN_USER_ID is required in production")
	}
	// callers authenticate with identity provider session tokens
	if c.ClerkSecretKey == "" {
		return fmt.Errorf("CLERK_SECRET_KEY is required in production")
	}
	return nil
}

// UsesDevAuth reports whether bearer tokens are checked against JWT_SECRET
// instead of the identity provider
func (c *Config) UsesDevAuth() bool {
	return c.ClerkSecretKey == ""
}

// IsProduction reports whether the process runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
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
