package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean. No config files: the deployment platform owns env vars.
type Config struct {
	Addr          string
	LogLevel      string
	JWTSigningKey string

	PostgresDSN string

	Redis RedisConfig

	Kafka KafkaConfig

	// RegistryCacheTTL bounds how long a fetched registry record may be
	// served from cache before a fresh lookup is forced.
	RegistryCacheTTL time.Duration
}

// RedisConfig holds connection settings for the registry record cache.
// An empty URL disables Redis; the in-memory cache is used instead.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the audit event sink. Empty brokers
// disable the sink; audit events still land in the audit store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          getEnv("MEMBERDESK_ADDR", ":8080"),
		LogLevel:      getEnv("MEMBERDESK_LOG_LEVEL", "info"),
		JWTSigningKey: getEnv("MEMBERDESK_JWT_SIGNING_KEY", ""),
		PostgresDSN:   getEnv("MEMBERDESK_POSTGRES_DSN", ""),
		Redis: RedisConfig{
			URL:          getEnv("MEMBERDESK_REDIS_URL", ""),
			PoolSize:     getEnvInt("MEMBERDESK_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("MEMBERDESK_REDIS_MIN_IDLE", 2),
			DialTimeout:  getEnvDuration("MEMBERDESK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("MEMBERDESK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("MEMBERDESK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: getEnv("MEMBERDESK_AUDIT_TOPIC", "memberdesk.audit"),
		},
		RegistryCacheTTL: getEnvDuration("MEMBERDESK_REGISTRY_CACHE_TTL", 15*time.Minute),
	}
	if brokers := os.Getenv("MEMBERDESK_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitAndTrim(brokers)
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
