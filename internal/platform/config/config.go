package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr        string
	DatabaseURL string

	Redis RedisConfig

	// JWTSigningKey signs login session cookies.
	JWTSigningKey string
	// SessionTTL bounds login session lifetime. The legacy cookie lived 24h.
	SessionTTL time.Duration

	Matcher MatcherConfig
	Capture CaptureConfig

	// KafkaBrokers enables the audit publisher when non-empty.
	KafkaBrokers    []string
	KafkaAuditTopic string

	// UploadsDir is where member photos are stored.
	UploadsDir string
}

// RedisConfig holds the optional Redis session-store settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MatcherConfig points at the external fingerprint matching service.
type MatcherConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CaptureConfig bounds capture-device waits. An unbounded hang against the
// reader is a defect, not a feature.
type CaptureConfig struct {
	ConnectTimeout time.Duration
	ScanTimeout    time.Duration
}

// FromEnv builds the config from environment variables with development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("NOVENANTES_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionTTL:    envDuration("SESSION_TTL", 24*time.Hour),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Matcher: MatcherConfig{
			BaseURL: envOr("BIOMETRIC_SERVICE_URL", "http://localhost:8080/api/biometric"),
			Timeout: envDuration("BIOMETRIC_SERVICE_TIMEOUT", 15*time.Second),
		},
		Capture: CaptureConfig{
			ConnectTimeout: envDuration("CAPTURE_CONNECT_TIMEOUT", 10*time.Second),
			ScanTimeout:    envDuration("CAPTURE_SCAN_TIMEOUT", 60*time.Second),
		},
		KafkaAuditTopic: envOr("KAFKA_AUDIT_TOPIC", "novenantes.audit"),
		UploadsDir:      envOr("UPLOADS_DIR", "uploads"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
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
