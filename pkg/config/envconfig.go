package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every recognized option. It is passed explicitly to each
// component at construction; there is no process-wide settings object.
type Config struct {
	Port        string `envconfig:"PORT" default:"8000"`
	BaseURL     string `envconfig:"BASE_URL" default:"http://localhost:8000"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"pitchlense"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"password"`
	DBName     string `envconfig:"DB_NAME" default:"pitchlense"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Blob storage. Backend selects the implementation; the bucket is shared
	// by uploads and result artifacts.
	BlobBackend  string `envconfig:"BLOB_BACKEND" default:"s3"`
	Bucket       string `envconfig:"BUCKET" required:"true"`
	S3Endpoint   string `envconfig:"S3_ENDPOINT" default:"localhost:9000"`
	S3AccessKey  string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey  string `envconfig:"S3_SECRET_KEY"`
	S3Region     string `envconfig:"S3_REGION" default:"us-east-1"`
	S3UseSSL     bool   `envconfig:"S3_USE_SSL" default:"false"`
	LocalBlobDir string `envconfig:"LOCAL_BLOB_DIR" default:".blobdata"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// External compute trigger. When the URL is unset the worker skips the
	// trigger step with a warning, matching the source deployment.
	TriggerURL     string        `envconfig:"TRIGGER_URL"`
	TriggerTimeout time.Duration `envconfig:"TRIGGER_TIMEOUT" default:"30s"`

	MaxFileSize         int64    `envconfig:"MAX_FILE_SIZE" default:"52428800"`
	AllowedContentTypes []string `envconfig:"ALLOWED_CONTENT_TYPES" default:"application/pdf,application/vnd.openxmlformats-officedocument.presentationml.presentation,application/vnd.openxmlformats-officedocument.wordprocessingml.document,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,text/plain,text/csv"`
	AllowedCategories   []string `envconfig:"ALLOWED_CATEGORIES" default:"pitch deck,call recording,meeting recording,founder profile,news report,company document"`
	ArtifactRoot        string   `envconfig:"ARTIFACT_ROOT" default:"runs"`

	WorkerCount int `envconfig:"WORKER_COUNT" default:"2"`
	// TaskPollInterval bounds how long a committed task can sit unnoticed
	// when the Redis nudge is lost.
	TaskPollInterval time.Duration `envconfig:"TASK_POLL_INTERVAL" default:"10s"`
	// PendingReportTimeout > 0 enables the reaper that fails reports whose
	// artifact never appeared. 0 disables it.
	PendingReportTimeout time.Duration `envconfig:"PENDING_REPORT_TIMEOUT" default:"0"`
}

// Load reads .env (development convenience) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that envconfig tags cannot express.
func (c *Config) Validate() error {
	var errs []string

	switch c.BlobBackend {
	case "s3", "gcs", "local":
	default:
		errs = append(errs, fmt.Sprintf("  BLOB_BACKEND must be one of s3, gcs, local (got %q)", c.BlobBackend))
	}

	if c.BlobBackend == "s3" && (c.S3AccessKey == "" || c.S3SecretKey == "") {
		errs = append(errs, "  S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 backend")
	}

	if c.TriggerURL != "" {
		if _, err := url.ParseRequestURI(c.TriggerURL); err != nil {
			errs = append(errs, "  TRIGGER_URL must be a valid URL")
		}
	}

	if c.MaxFileSize <= 0 {
		errs = append(errs, "  MAX_FILE_SIZE must be positive")
	}

	if len(c.AllowedCategories) == 0 {
		errs = append(errs, "  ALLOWED_CATEGORIES must not be empty")
	}

	if len(c.AllowedContentTypes) == 0 {
		errs = append(errs, "  ALLOWED_CONTENT_TYPES must not be empty")
	}

	if c.WorkerCount < 1 {
		errs = append(errs, "  WORKER_COUNT must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("environment validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}

// MaskSecret hides the middle of a secret for log output.
func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// Print writes the effective configuration through the given printf-style
// function, masking credentials.
func (c *Config) Print(fmtr func(string, ...interface{})) {
	fmtr("Configuration:\n")
	fmtr("  Environment: %s\n", c.Environment)
	fmtr("  Port: %s\n", c.Port)
	fmtr("  Base URL: %s\n", c.BaseURL)
	fmtr("  Database: %s@%s:%d/%s\n", c.DBUser, c.DBHost, c.DBPort, c.DBName)
	fmtr("  Blob backend: %s (bucket=%s)\n", c.BlobBackend, c.Bucket)
	if c.BlobBackend == "s3" {
		fmtr("    S3 endpoint: %s\n", c.S3Endpoint)
		fmtr("    S3 access key: %s\n", MaskSecret(c.S3AccessKey))
	}
	fmtr("  Redis: %s\n", c.RedisAddr)
	if c.TriggerURL != "" {
		fmtr("  Trigger: %s (timeout=%s)\n", c.TriggerURL, c.TriggerTimeout)
	} else {
		fmtr("  Trigger: disabled\n")
	}
	fmtr("  Max file size: %d bytes\n", c.MaxFileSize)
	fmtr("  Workers: %d\n", c.WorkerCount)
	if c.PendingReportTimeout > 0 {
		fmtr("  Pending report timeout: %s\n", c.PendingReportTimeout)
	}
}
