package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	CORS       CORSConfig
	Thresholds ThresholdsConfig
	Extraction ExtractionConfig
	Intake     IntakeConfig
	Seed       SeedConfig
	Storage    StorageConfig
	Events     EventsConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
	MaxUploadSizeMB int64         `mapstructure:"max_upload_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ThresholdsConfig holds the initial confidence routing thresholds.
type ThresholdsConfig struct {
	AutoApprove float64 `mapstructure:"auto_approve"`
	Review      float64 `mapstructure:"review"`
}

// ExtractionConfig holds settings for the (mock) extraction provider and the
// resilience wrapper around it.
type ExtractionConfig struct {
	Provider       string        `mapstructure:"provider"`
	UploadLatency  time.Duration `mapstructure:"upload_latency"`
	ExtractLatency time.Duration `mapstructure:"extract_latency"`
	ValidateDelay  time.Duration `mapstructure:"validate_latency"`
	FailureRate    float64       `mapstructure:"failure_rate"`
	Seed           int64         `mapstructure:"seed"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	BreakerEnabled bool          `mapstructure:"breaker_enabled"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// IntakeConfig holds settings for turning uploads into invoices.
type IntakeConfig struct {
	SLAWindow    time.Duration `mapstructure:"sla_window"`
	Concurrency  int           `mapstructure:"concurrency"`
	DefaultUser  string        `mapstructure:"default_user"`
	EngineName   string        `mapstructure:"engine_name"`
	JobRetention time.Duration `mapstructure:"job_retention"`
}

// SeedConfig controls the demo invoices loaded at startup.
type SeedConfig struct {
	Count int   `mapstructure:"count"`
	Seed  int64 `mapstructure:"seed"`
}

// StorageConfig selects where uploaded document bytes are kept.
type StorageConfig struct {
	Provider      string `mapstructure:"provider"`
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// EventsConfig selects the lifecycle event publisher.
type EventsConfig struct {
	Provider      string `mapstructure:"provider"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// RateLimitConfig holds the token bucket applied to upload routes.
type RateLimitConfig struct {
	UploadRPS   float64 `mapstructure:"upload_rps"`
	UploadBurst int     `mapstructure:"upload_burst"`
}

// Load reads configuration from environment variables with the INVOICEDASH_
// prefix. A .env file in the working directory is loaded first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("INVOICEDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_size_mb", 25)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000")

	// Threshold defaults
	v.SetDefault("thresholds.auto_approve", 85)
	v.SetDefault("thresholds.review", 60)

	// Extraction defaults mirror the latency of the demo backend.
	v.SetDefault("extraction.provider", "mock")
	v.SetDefault("extraction.upload_latency", "1500ms")
	v.SetDefault("extraction.extract_latency", "2s")
	v.SetDefault("extraction.validate_latency", "500ms")
	v.SetDefault("extraction.failure_rate", 0)
	v.SetDefault("extraction.seed", 0)
	v.SetDefault("extraction.max_retries", 3)
	v.SetDefault("extraction.retry_backoff", "200ms")
	v.SetDefault("extraction.breaker_enabled", true)
	v.SetDefault("extraction.timeout", "30s")

	// Intake defaults
	v.SetDefault("intake.sla_window", "24h")
	v.SetDefault("intake.concurrency", 4)
	v.SetDefault("intake.default_user", "Current User")
	v.SetDefault("intake.engine_name", "AI Engine v2.1")
	v.SetDefault("intake.job_retention", "1h")

	// Seed defaults
	v.SetDefault("seed.count", 15)
	v.SetDefault("seed.seed", 0)

	// Storage defaults
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "invoicedash-documents")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.presign_expiry", 3600)

	// Events defaults
	v.SetDefault("events.provider", "noop")
	v.SetDefault("events.url", "nats://127.0.0.1:4222")
	v.SetDefault("events.subject_prefix", "invoices")

	// Rate limit defaults
	v.SetDefault("ratelimit.upload_rps", 5)
	v.SetDefault("ratelimit.upload_burst", 10)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "INVOICEDASH_SERVER_PORT",
		"server.read_timeout":         "INVOICEDASH_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "INVOICEDASH_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":     "INVOICEDASH_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":          "INVOICEDASH_SERVER_ENVIRONMENT",
		"server.max_upload_size_mb":   "INVOICEDASH_SERVER_MAX_UPLOAD_SIZE_MB",
		"log.level":                   "INVOICEDASH_LOG_LEVEL",
		"log.format":                  "INVOICEDASH_LOG_FORMAT",
		"cors.allowed_origins":        "INVOICEDASH_CORS_ALLOWED_ORIGINS",
		"thresholds.auto_approve":     "INVOICEDASH_THRESHOLDS_AUTO_APPROVE",
		"thresholds.review":           "INVOICEDASH_THRESHOLDS_REVIEW",
		"extraction.provider":         "INVOICEDASH_EXTRACTION_PROVIDER",
		"extraction.upload_latency":   "INVOICEDASH_EXTRACTION_UPLOAD_LATENCY",
		"extraction.extract_latency":  "INVOICEDASH_EXTRACTION_EXTRACT_LATENCY",
		"extraction.validate_latency": "INVOICEDASH_EXTRACTION_VALIDATE_LATENCY",
		"extraction.failure_rate":     "INVOICEDASH_EXTRACTION_FAILURE_RATE",
		"extraction.seed":             "INVOICEDASH_EXTRACTION_SEED",
		"extraction.max_retries":      "INVOICEDASH_EXTRACTION_MAX_RETRIES",
		"extraction.retry_backoff":    "INVOICEDASH_EXTRACTION_RETRY_BACKOFF",
		"extraction.breaker_enabled":  "INVOICEDASH_EXTRACTION_BREAKER_ENABLED",
		"extraction.timeout":          "INVOICEDASH_EXTRACTION_TIMEOUT",
		"intake.sla_window":           "INVOICEDASH_INTAKE_SLA_WINDOW",
		"intake.concurrency":          "INVOICEDASH_INTAKE_CONCURRENCY",
		"intake.default_user":         "INVOICEDASH_INTAKE_DEFAULT_USER",
		"intake.engine_name":          "INVOICEDASH_INTAKE_ENGINE_NAME",
		"intake.job_retention":        "INVOICEDASH_INTAKE_JOB_RETENTION",
		"seed.count":                  "INVOICEDASH_SEED_COUNT",
		"seed.seed":                   "INVOICEDASH_SEED_SEED",
		"storage.provider":            "INVOICEDASH_STORAGE_PROVIDER",
		"storage.region":              "INVOICEDASH_STORAGE_REGION",
		"storage.bucket":              "INVOICEDASH_STORAGE_BUCKET",
		"storage.endpoint":            "INVOICEDASH_STORAGE_ENDPOINT",
		"storage.access_key":          "INVOICEDASH_STORAGE_ACCESS_KEY",
		"storage.secret_key":          "INVOICEDASH_STORAGE_SECRET_KEY",
		"storage.presign_expiry":      "INVOICEDASH_STORAGE_PRESIGN_EXPIRY",
		"events.provider":             "INVOICEDASH_EVENTS_PROVIDER",
		"events.url":                  "INVOICEDASH_EVENTS_URL",
		"events.subject_prefix":       "INVOICEDASH_EVENTS_SUBJECT_PREFIX",
		"ratelimit.upload_rps":        "INVOICEDASH_RATELIMIT_UPLOAD_RPS",
		"ratelimit.upload_burst":      "INVOICEDASH_RATELIMIT_UPLOAD_BURST",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if INVOICEDASH_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEDASH_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
		MaxUploadSizeMB: v.GetInt64("server.max_upload_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Thresholds = ThresholdsConfig{
		AutoApprove: v.GetFloat64("thresholds.auto_approve"),
		Review:      v.GetFloat64("thresholds.review"),
	}
	cfg.Extraction = ExtractionConfig{
		Provider:       v.GetString("extraction.provider"),
		UploadLatency:  v.GetDuration("extraction.upload_latency"),
		ExtractLatency: v.GetDuration("extraction.extract_latency"),
		ValidateDelay:  v.GetDuration("extraction.validate_latency"),
		FailureRate:    v.GetFloat64("extraction.failure_rate"),
		Seed:           v.GetInt64("extraction.seed"),
		MaxRetries:     v.GetInt("extraction.max_retries"),
		RetryBackoff:   v.GetDuration("extraction.retry_backoff"),
		BreakerEnabled: v.GetBool("extraction.breaker_enabled"),
		Timeout:        v.GetDuration("extraction.timeout"),
	}
	cfg.Intake = IntakeConfig{
		SLAWindow:    v.GetDuration("intake.sla_window"),
		Concurrency:  v.GetInt("intake.concurrency"),
		DefaultUser:  v.GetString("intake.default_user"),
		EngineName:   v.GetString("intake.engine_name"),
		JobRetention: v.GetDuration("intake.job_retention"),
	}
	cfg.Seed = SeedConfig{
		Count: v.GetInt("seed.count"),
		Seed:  v.GetInt64("seed.seed"),
	}
	cfg.Storage = StorageConfig{
		Provider:      v.GetString("storage.provider"),
		Region:        v.GetString("storage.region"),
		Bucket:        v.GetString("storage.bucket"),
		Endpoint:      v.GetString("storage.endpoint"),
		AccessKey:     v.GetString("storage.access_key"),
		SecretKey:     v.GetString("storage.secret_key"),
		PresignExpiry: v.GetInt64("storage.presign_expiry"),
	}
	cfg.Events = EventsConfig{
		Provider:      v.GetString("events.provider"),
		URL:           v.GetString("events.url"),
		SubjectPrefix: v.GetString("events.subject_prefix"),
	}
	cfg.RateLimit = RateLimitConfig{
		UploadRPS:   v.GetFloat64("ratelimit.upload_rps"),
		UploadBurst: v.GetInt("ratelimit.upload_burst"),
	}

	return cfg, nil
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
