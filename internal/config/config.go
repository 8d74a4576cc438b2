package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Snapshot backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Auth modes
const (
	AuthModeAuth0 = "auth0"
	AuthModeHMAC  = "hmac"
	AuthModeDemo  = "demo"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Session snapshots
	SnapshotBackend string
	SnapshotTTL     time.Duration
	SessionIdleTTL  time.Duration
	Redis           RedisConfig

	// Auth
	AuthMode       string
	Auth0Domain    string
	Auth0Audience  string
	AuthHMACSecret string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int

	// Checkout
	TaxRate decimal.Decimal
	Kafka   KafkaConfig

	// S3 Storage
	S3 S3Config
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds order event publishing settings. No brokers disables publishing.
type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
	PublicBaseURL   string
}

// Enabled reports whether product image uploads are configured
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	taxRate, err := decimal.NewFromString(getEnv("TAX_RATE", "0.08"))
	if err != nil {
		return nil, fmt.Errorf("TAX_RATE: %w", err)
	}
	snapshotTTL, err := time.ParseDuration(getEnv("SNAPSHOT_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("SNAPSHOT_TTL: %w", err)
	}
	idleTTL, err := time.ParseDuration(getEnv("SESSION_IDLE_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_IDLE_TTL: %w", err)
	}

	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SnapshotBackend: getEnv("SNAPSHOT_BACKEND", BackendPostgres),
		SnapshotTTL:     snapshotTTL,
		SessionIdleTTL:  idleTTL,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AuthMode:           getEnv("AUTH_MODE", AuthModeAuth0),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AuthHMACSecret:     getEnv("AUTH_HMAC_SECRET", ""),
		Port:               getEnv("PORT", "8080"),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 300),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 50),
		TaxRate:            taxRate,
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
			OrderTopic: getEnv("KAFKA_ORDER_TOPIC", "storefront.orders"),
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
			PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	// Catalog and orders always live in postgres
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.SnapshotBackend {
	case BackendPostgres, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis snapshot backend")
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.SnapshotBackend)
	}

	switch c.AuthMode {
	case AuthModeAuth0:
		if c.Auth0Domain == "" {
			return fmt.Errorf("AUTH0_DOMAIN is required")
		}
		if c.Auth0Audience == "" {
			return fmt.Errorf("AUTH0_AUDIENCE is required")
		}
	case AuthModeHMAC:
		if len(c.AuthHMACSecret) < 32 {
			return fmt.Errorf("AUTH_HMAC_SECRET must be at least 32 bytes")
		}
	case AuthModeDemo:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=demo is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.TaxRate.IsNegative() {
		return fmt.Errorf("TAX_RATE cannot be negative")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitNonEmpty(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
