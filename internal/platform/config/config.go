package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	strutil "registrar/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DatabaseURL selects durable Postgres stores; empty keeps everything in memory.
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	// ExtensionsFile is an optional YAML seed for the extension catalog.
	ExtensionsFile string
	// ClosedTextKeys rejects text record keys outside the known namespace.
	ClosedTextKeys bool
	// MaxListingPrice caps marketplace listing prices.
	MaxListingPrice decimal.Decimal
	// WritesPerMinute caps state-changing requests per client address.
	// Zero disables the limit.
	WritesPerMinute int
}

// RedisConfig configures the resolution cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the event relay. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	RelayInterval time.Duration
}

// DefaultMaxListingPrice mirrors the product's 1000 ETH listing ceiling.
var DefaultMaxListingPrice = decimal.NewFromInt(1000)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:            getEnv("REGISTRAR_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getDuration("RESOLVER_CACHE_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       strutil.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:         getEnv("KAFKA_EVENTS_TOPIC", "registrar.events"),
			RelayInterval: getDuration("KAFKA_RELAY_INTERVAL", time.Second),
		},
		ExtensionsFile:  os.Getenv("EXTENSIONS_FILE"),
		ClosedTextKeys:  os.Getenv("CLOSED_TEXT_KEYS") == "true",
		MaxListingPrice: getDecimal("MAX_LISTING_PRICE", DefaultMaxListingPrice),
		WritesPerMinute: getInt("RATE_LIMIT_WRITES_PER_MINUTE", 120),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v, err := decimal.NewFromString(os.Getenv(key)); err == nil && v.IsPositive() {
		return v
	}
	return fallback
}
