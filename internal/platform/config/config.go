// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures the portal's runtime configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// CatalogPath points at the YAML catalog of governance areas and
	// indicators loaded at startup.
	CatalogPath string

	// CycleYear is the active assessment cycle.
	CycleYear int

	Workflow WorkflowConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// WorkflowConfig tunes the assessment lifecycle guards.
type WorkflowConfig struct {
	// FinalReviewTier is the tier whose approval completes the assessment.
	FinalReviewTier int

	// ReworkCommentMinLen is the minimum length of a rework request comment.
	ReworkCommentMinLen int

	// DateGrace is the default grace window for date-bound requirements.
	DateGrace time.Duration
}

// PostgresConfig holds the connection settings for the primary store.
// An empty DSN selects the in-memory stores.
type PostgresConfig struct {
	DSN string
}

// RedisConfig holds the connection settings for the idempotency/cache layer.
// An empty URL disables redis-backed features.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the event publishing settings. Empty brokers disable
// kafka publishing and events stay on the in-process store only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envOr("GOVSEAL_ADDR", ":8080"),
		JWTSigningKey: envOr("GOVSEAL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		CatalogPath:   envOr("GOVSEAL_CATALOG_PATH", "catalog/catalog.yaml"),
		CycleYear:     envIntOr("GOVSEAL_CYCLE_YEAR", time.Now().Year()),
		Workflow: WorkflowConfig{
			FinalReviewTier:     envIntOr("GOVSEAL_FINAL_REVIEW_TIER", 2),
			ReworkCommentMinLen: envIntOr("GOVSEAL_REWORK_COMMENT_MIN_LEN", 20),
			DateGrace:           envDurationOr("GOVSEAL_DATE_GRACE", 15*24*time.Hour),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("GOVSEAL_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("GOVSEAL_REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("GOVSEAL_KAFKA_BROKERS")),
			Topic:   envOr("GOVSEAL_KAFKA_TOPIC", "govseal.assessment-events"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
