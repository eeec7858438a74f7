package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"sigil/pkg/domain"
)

// Config captures process-level configuration. Business configuration
// (supply cap, minimum payment, payment asset) is seeded from here at first
// boot and administrator-mutable afterwards.
type Config struct {
	Addr          string
	PostgresURL   string
	JWTSigningKey string

	Redis RedisConfig
	Kafka KafkaConfig

	// Initial mint configuration, applied only when the state store is empty.
	AdminAddress  domain.Address
	PaymentAsset  domain.Address
	MaxSupply     uint64
	MinMintAmount uint64
}

// RedisConfig holds connection settings for the optional lock-status cache.
type RedisConfig struct {
	URL          string
	LockCacheTTL time.Duration
}

// KafkaConfig holds connection settings for the optional event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("SIGIL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("SIGIL_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("SIGIL_KAFKA_TOPIC")
	if topic == "" {
		topic = "sigil.token-events"
	}

	return Config{
		Addr:          addr,
		PostgresURL:   os.Getenv("SIGIL_POSTGRES_URL"),
		JWTSigningKey: jwtSigningKey,
		Redis: RedisConfig{
			URL:          os.Getenv("SIGIL_REDIS_URL"),
			LockCacheTTL: durationEnv("SIGIL_LOCK_CACHE_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitEnv("SIGIL_KAFKA_BROKERS"),
			Topic:   topic,
		},
		AdminAddress:  domain.NewAddress(envDefault("SIGIL_ADMIN_ADDRESS", "admin")),
		PaymentAsset:  domain.NewAddress(envDefault("SIGIL_PAYMENT_ASSET", "asset:default")),
		MaxSupply:     uintEnv("SIGIL_MAX_SUPPLY", 10_000),
		MinMintAmount: uintEnv("SIGIL_MIN_MINT_AMOUNT", 0),
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func uintEnv(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitEnv(key string) []string {
	v := os.Getenv(key)
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
