package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := FromEnv()
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Empty(t, cfg.DatabaseURL)
		assert.Empty(t, cfg.Kafka.Brokers)
		assert.True(t, cfg.MaxListingPrice.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
		assert.Equal(t, 120, cfg.WritesPerMinute)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("REGISTRAR_ADDR", ":9090")
		t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
		t.Setenv("MAX_LISTING_PRICE", "50.5")
		t.Setenv("CLOSED_TEXT_KEYS", "true")
		t.Setenv("RESOLVER_CACHE_TTL", "2m")
		t.Setenv("RATE_LIMIT_WRITES_PER_MINUTE", "0")

		cfg := FromEnv()
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
		assert.True(t, cfg.MaxListingPrice.Equal(decimal.RequireFromString("50.5")))
		assert.True(t, cfg.ClosedTextKeys)
		assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
		assert.Zero(t, cfg.WritesPerMinute)
	})

	t.Run("non-positive ceiling falls back", func(t *testing.T) {
		t.Setenv("MAX_LISTING_PRICE", "-3")
		assert.True(t, FromEnv().MaxListingPrice.Equal(DefaultMaxListingPrice))
	})
}
