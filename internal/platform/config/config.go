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

// Server captures everything main needs to wire the service.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	LogFormat     string

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Ownership OwnershipConfig
	Signature SignatureConfig

	AccountRegistryURL string
}

// DatabaseConfig is empty when solicitudes are kept in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is empty when summaries are kept in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SummaryTTL   time.Duration
}

// KafkaConfig is empty when operational alerts stay in the in-memory audit store.
type KafkaConfig struct {
	Brokers     []string
	AlertsTopic string
}

// OwnershipConfig feeds ownership.Config.
type OwnershipConfig struct {
	PercentTolerance decimal.Decimal
	MaxDepth         int
}

type SignatureConfig struct {
	ProviderURL     string
	PollInterval    time.Duration
	PollConcurrency int
	RequestTimeout  time.Duration
	// WebhookSecret is the shared token the provider sends on webhooks.
	WebhookSecret string
}

// FromEnv builds a Server config from environment variables so main stays
// lean. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	tolerance, err := decimal.NewFromString(envOr("OWNERSHIP_PERCENT_TOLERANCE", "0.5"))
	if err != nil {
		return Server{}, fmt.Errorf("OWNERSHIP_PERCENT_TOLERANCE: %w", err)
	}
	if tolerance.IsNegative() {
		return Server{}, fmt.Errorf("OWNERSHIP_PERCENT_TOLERANCE must not be negative")
	}
	maxDepth, err := envInt("OWNERSHIP_MAX_DEPTH", 5)
	if err != nil {
		return Server{}, err
	}
	if maxDepth < 1 {
		return Server{}, fmt.Errorf("OWNERSHIP_MAX_DEPTH must be at least 1")
	}
	pollInterval, err := envDuration("SIGNATURE_POLL_INTERVAL", time.Minute)
	if err != nil {
		return Server{}, err
	}
	pollConcurrency, err := envInt("SIGNATURE_POLL_CONCURRENCY", 4)
	if err != nil {
		return Server{}, err
	}
	summaryTTL, err := envDuration("SUMMARY_TTL", 30*24*time.Hour)
	if err != nil {
		return Server{}, err
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          envOr("APERTURA_ADDR", ":8080"),
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     envOr("JWT_ISSUER", "apertura"),
		JWTAudience:   envOr("JWT_AUDIENCE", "apertura-api"),
		LogFormat:     envOr("LOG_FORMAT", "json"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			SummaryTTL:   summaryTTL,
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(os.Getenv("KAFKA_BROKERS")),
			AlertsTopic: envOr("ALERTS_TOPIC", "apertura.alerts"),
		},
		Ownership: OwnershipConfig{
			PercentTolerance: tolerance,
			MaxDepth:         maxDepth,
		},
		Signature: SignatureConfig{
			ProviderURL:     os.Getenv("SIGNATURE_PROVIDER_URL"),
			PollInterval:    pollInterval,
			PollConcurrency: pollConcurrency,
			RequestTimeout:  10 * time.Second,
			WebhookSecret:   os.Getenv("SIGNATURE_WEBHOOK_SECRET"),
		},
		AccountRegistryURL: os.Getenv("ACCOUNT_REGISTRY_URL"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
