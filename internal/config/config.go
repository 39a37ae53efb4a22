// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend identifiers.
const (
	StorageNone = "none"
	StorageGCS  = "gcs"
	StorageS3   = "s3"
)

// MaxURLExpiry is the longest signed-URL lifetime the storage providers accept.
const MaxURLExpiry = 7 * 24 * time.Hour

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	LogLevel    slog.Level

	ProviderTimeout time.Duration
	Push            PushConfig
	SMS             SMSConfig
	Storage         StorageConfig
	Report          ReportConfig
	RateLimit       RateLimitConfig
	Auth            AuthConfig
}

// PushConfig holds the FCM credentials. An empty ServerKey disables push.
type PushConfig struct {
	ServerKey string
	Endpoint  string
}

// Configured returns true when push can be sent.
func (c PushConfig) Configured() bool { return c.ServerKey != "" }

// SMSConfig holds the Twilio credentials and sender identity.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

// Configured returns true when SMS can be sent.
func (c SMSConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// StorageConfig selects and configures the report object store.
type StorageConfig struct {
	Type           string // "none", "gcs" or "s3"
	Bucket         string
	Prefix         string
	Region         string
	Endpoint       string // S3-compatible endpoint (MinIO, LocalStack)
	CredentialJSON string // GCS service account key
}

// ReportConfig controls report delivery.
type ReportConfig struct {
	AdminPhone string
	URLExpiry  time.Duration
	Schedule   string // cron expression; empty disables scheduled delivery
	Window     time.Duration
	Location   *time.Location // zone report timestamps are rendered in
}

// RateLimitConfig bounds the public notification endpoints per client IP.
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// AuthConfig verifies identity-provider tokens. An empty JWTSecret runs in dev mode.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		DBPath:          getEnv("DB_PATH", "./data/neurosync.db"),
		LogLevel:        getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		Push: PushConfig{
			ServerKey: getEnv("FCM_SERVER_KEY", getEnv("FIREBASE_SERVER_KEY", "")),
			Endpoint:  getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
		},
		SMS: SMSConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
			BaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		},
		Storage: StorageConfig{
			Type:           strings.ToLower(getEnv("STORAGE_TYPE", StorageNone)),
			Bucket:         getEnv("STORAGE_BUCKET", getEnv("FIREBASE_STORAGE_BUCKET", "")),
			Prefix:         getEnv("STORAGE_PREFIX", ""),
			Region:         getEnv("STORAGE_REGION", getEnv("AWS_REGION", "us-east-1")),
			Endpoint:       getEnv("STORAGE_ENDPOINT", ""),
			CredentialJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_KEY", ""),
		},
		Report: ReportConfig{
			AdminPhone: getEnv("ADMIN_PHONE_NUMBER", ""),
			URLExpiry:  getEnvDuration("REPORT_URL_EXPIRY", time.Hour),
			Schedule:   getEnv("REPORT_SCHEDULE", ""),
			Window:     getEnvDuration("REPORT_WINDOW", 7*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvInt("NOTIFY_RATE_LIMIT_RPS", 5),
			Burst: getEnvInt("NOTIFY_RATE_LIMIT_BURST", 10),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			Issuer:    getEnv("AUTH_JWT_ISSUER", ""),
		},
	}

	if cfg.Storage.Type == "" {
		cfg.Storage.Type = StorageNone
	}

	loc, err := time.LoadLocation(strings.TrimSpace(getEnv("REPORT_TIMEZONE", "UTC")))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: REPORT_TIMEZONE: %w", err)
	}
	cfg.Report.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be > 0")
	}
	switch c.Storage.Type {
	case StorageNone:
	case StorageGCS, StorageS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for %s storage", c.Storage.Type)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE: %s", c.Storage.Type)
	}
	if c.Report.URLExpiry <= 0 || c.Report.URLExpiry > MaxURLExpiry {
		return fmt.Errorf("REPORT_URL_EXPIRY must be within (0, %s]", MaxURLExpiry)
	}
	if c.Report.Window <= 0 {
		return fmt.Errorf("REPORT_WINDOW must be > 0")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("NOTIFY_RATE_LIMIT_RPS and NOTIFY_RATE_LIMIT_BURST must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// StorageEnabled returns true when a report object store is configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Type != StorageNone
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
