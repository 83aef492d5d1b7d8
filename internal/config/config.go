// Package config provides application configuration loading from the
// environment. Configuration is loaded once at process start; components
// receive the specific values they need via their constructors.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all recognized configuration options for the pipeline.
type Config struct {
	Env      string
	HTTPAddr string

	// Object store (MinIO / S3-compatible)
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool
	BucketName     string
	SourcePrefix   string
	TargetPrefix   string

	// Owner lookup store
	LookupBaseURL string
	LookupTimeout time.Duration

	// Queue (asynq over Redis)
	RedisURL          string
	QueueName         string
	WorkerConcurrency int

	// Retry policy for durable writes and reads
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	// Notifications
	UseSlack        bool
	UseEmail        bool
	SlackSecretName string
	SecretsDir      string
	EmailTopic      string

	// Email delivery (cmd/notifier)
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	EmailToAddress   string

	// Optional audit ledger
	DatabaseURL string

	// Webhook endpoint rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// CORS for the HTTP API
	CORSOrigins  []string
	CORSAllowAll bool
}

// Load reads configuration from the environment (and an optional .env file)
// and validates required fields.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:    getBool("MINIO_USE_SSL", false),
		BucketName:     getEnv("BUCKET_NAME", ""),
		SourcePrefix:   getEnv("SOURCE_PREFIX", "source/"),
		TargetPrefix:   getEnv("TARGET_PREFIX", "target/"),

		LookupBaseURL: getEnv("LOOKUP_BASE_URL", ""),
		LookupTimeout: getDuration("LOOKUP_TIMEOUT", 5*time.Second),

		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		QueueName:         getEnv("QUEUE_NAME", "leads"),
		WorkerConcurrency: getInt("WORKER_CONCURRENCY", 10),

		RetryMaxAttempts: getInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   getDuration("RETRY_BASE_DELAY", 500*time.Millisecond),

		UseSlack:        getBool("USE_SLACK", false),
		UseEmail:        getBool("USE_EMAIL", false),
		SlackSecretName: getEnv("SLACK_SECRET_NAME", ""),
		SecretsDir:      getEnv("SECRETS_DIR", ""),
		EmailTopic:      getEnv("EMAIL_TOPIC", "leads.notifications.email"),

		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getInt("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Lead Pipeline"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		EmailToAddress:   getEnv("EMAIL_TO_ADDRESS", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 20),

		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "")),
		CORSAllowAll: getBool("CORS_ALLOW_ALL", false),
	}

	if cfg.BucketName == "" {
		return nil, fmt.Errorf("BUCKET_NAME is required")
	}
	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.UseSlack && cfg.SlackSecretName == "" {
		return nil, fmt.Errorf("SLACK_SECRET_NAME is required when USE_SLACK is true")
	}
	if cfg.UseEmail && cfg.EmailTopic == "" {
		return nil, fmt.Errorf("EMAIL_TOPIC is required when USE_EMAIL is true")
	}
	if !strings.HasSuffix(cfg.SourcePrefix, "/") || !strings.HasSuffix(cfg.TargetPrefix, "/") {
		return nil, fmt.Errorf("SOURCE_PREFIX and TARGET_PREFIX must end with '/'")
	}

	return cfg, nil
}

func splitCSV(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.EqualFold(val, "true")
}

func getInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloat(key string, fallback float64) float64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
