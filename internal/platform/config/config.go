package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean and deployments stay twelve-factor.
type Server struct {
	Addr             string
	PostgresDSN      string
	Redis            RedisConfig
	KafkaBrokers     []string
	AuditTopic       string
	CheckoutBaseURL  string
	CheckoutSecret   string
	CheckoutTokenTTL time.Duration
	AutosaveQuiet    time.Duration
}

// RedisConfig holds connection settings for the snapshot store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("INTAKE_ADDR", ":8080"),
		PostgresDSN:      os.Getenv("INTAKE_POSTGRES_DSN"),
		CheckoutBaseURL:  envOr("CHECKOUT_BASE_URL", "https://checkout.example.com/session"),
		CheckoutSecret:   envOr("CHECKOUT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		CheckoutTokenTTL: envDuration("CHECKOUT_TOKEN_TTL", 15*time.Minute),
		AutosaveQuiet:    envDuration("AUTOSAVE_QUIET_PERIOD", 800*time.Millisecond),
		AuditTopic:       envOr("AUDIT_TOPIC", "intake.audit"),
		Redis: RedisConfig{
			URL:          os.Getenv("INTAKE_REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
