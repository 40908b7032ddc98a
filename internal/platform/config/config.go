// Package config builds the application configuration from environment
// variables so main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"idguardian/internal/decision"
)

// App captures the full server configuration.
type App struct {
	Addr          string
	MediaRoot     string
	SessionTTL    time.Duration
	VerifyTimeout time.Duration

	JWTSigningKey string
	TokenIssuer   string
	TokenAudience string

	// GeminiAPIKey empty means offline mode: analyzers return deterministic
	// mock results so the wizard runs end to end without a provider account.
	GeminiAPIKey string
	GeminiModel  string

	// RedisURL empty means sessions live in process memory.
	RedisURL string

	// PostgresDSN empty means verification results live in process memory.
	PostgresDSN string

	// KafkaBrokers empty means audit events are persisted but not relayed.
	KafkaBrokers    []string
	KafkaAuditTopic string

	// Session creation rate limit per client IP.
	SessionRateLimit  int
	SessionRateWindow time.Duration

	policy decision.Policy
}

// Policy returns the decision policy with any environment overrides applied.
func (a App) Policy() decision.Policy {
	return a.policy
}

// FromEnv builds the App config from environment variables.
func FromEnv() App {
	policy := decision.DefaultPolicy()
	policy.LivenessThreshold = envFloat("POLICY_LIVENESS_THRESHOLD", policy.LivenessThreshold)
	policy.AntispoofThreshold = envFloat("POLICY_ANTISPOOF_THRESHOLD", policy.AntispoofThreshold)
	policy.ReviewScore = envFloat("POLICY_REVIEW_SCORE", policy.ReviewScore)

	return App{
		Addr:          envString("IDGUARDIAN_ADDR", ":8080"),
		MediaRoot:     envString("MEDIA_ROOT", "./data/media"),
		SessionTTL:    envDuration("SESSION_TTL", 30*time.Minute),
		VerifyTimeout: envDuration("VERIFY_TIMEOUT", 90*time.Second),

		// The default is for development only; override in production.
		JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenIssuer:   envString("TOKEN_ISSUER", "idguardian"),
		TokenAudience: envString("TOKEN_AUDIENCE", "idguardian-wizard"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  os.Getenv("GEMINI_MODEL"),

		RedisURL:    os.Getenv("REDIS_URL"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		KafkaBrokers:    envList("KAFKA_BROKERS"),
		KafkaAuditTopic: envString("KAFKA_AUDIT_TOPIC", "idguardian.audit"),

		SessionRateLimit:  envInt("SESSION_RATE_LIMIT", 10),
		SessionRateWindow: envDuration("SESSION_RATE_WINDOW", time.Minute),

		policy: policy,
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
