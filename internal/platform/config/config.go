// Package config builds process configuration from environment variables so
// main stays lean. No business logic should read the environment directly.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the server process needs.
type Config struct {
	App     AppConfig
	DB      DatabaseConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Auth    AuthConfig
	Vetting VettingConfig
}

type AppConfig struct {
	Env  string
	Addr string
}

type DatabaseConfig struct {
	// URL is a lib/pq connection string. Empty means run on in-memory
	// stores (dev and tests).
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	// URL is a redis:// URL. Empty means the access-gate cache runs
	// in-process.
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	// Brokers is a comma-separated seed list. Empty disables the Kafka
	// audit sink and notification producer.
	Brokers           []string
	AuditTopic        string
	NotificationTopic string
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	// AdminTokenHash is the bcrypt hash of the operator service token
	// accepted by the admin API as an alternative to a JWT.
	AdminTokenHash string
}

type VettingConfig struct {
	// SupportEmail appears in applicant-facing denial messages.
	SupportEmail string
	// AccessCacheTTL bounds how stale an access decision may be after an
	// administrative status change.
	AccessCacheTTL time.Duration
	// EstimatedReviewDays feeds the public status projection.
	EstimatedReviewDays int
}

// FromEnv builds a Config from environment variables, applying development
// defaults where unset.
func FromEnv() Config {
	return Config{
		App: AppConfig{
			Env:  getenv("MEMBERGATE_ENV", "dev"),
			Addr: getenv("MEMBERGATE_ADDR", ":8080"),
		},
		DB: DatabaseConfig{
			URL:             os.Getenv("MEMBERGATE_DB_URL"),
			MaxOpenConns:    getint("MEMBERGATE_DB_MAX_OPEN", 25),
			MaxIdleConns:    getint("MEMBERGATE_DB_MAX_IDLE", 5),
			ConnMaxLifetime: getduration("MEMBERGATE_DB_CONN_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("MEMBERGATE_REDIS_URL"),
			PoolSize:     getint("MEMBERGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("MEMBERGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  getduration("MEMBERGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("MEMBERGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("MEMBERGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           split(os.Getenv("MEMBERGATE_KAFKA_BROKERS")),
			AuditTopic:        getenv("MEMBERGATE_KAFKA_AUDIT_TOPIC", "membergate.audit"),
			NotificationTopic: getenv("MEMBERGATE_KAFKA_NOTIFICATION_TOPIC", "membergate.notifications"),
		},
		Auth: AuthConfig{
			JWTSigningKey: getenv("MEMBERGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     getenv("MEMBERGATE_JWT_ISSUER", "membergate"),
			JWTAudience:   getenv("MEMBERGATE_JWT_AUDIENCE", "membergate"),
			AdminTokenHash: os.Getenv("MEMBERGATE_ADMIN_TOKEN_HASH"),
		},
		Vetting: VettingConfig{
			SupportEmail:        getenv("MEMBERGATE_SUPPORT_EMAIL", "support@membergate.local"),
			AccessCacheTTL:      getduration("MEMBERGATE_ACCESS_CACHE_TTL", 5*time.Minute),
			EstimatedReviewDays: getint("MEMBERGATE_ESTIMATED_REVIEW_DAYS", 14),
		},
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func split(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
