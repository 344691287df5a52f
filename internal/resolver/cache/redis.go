// Package cache holds read-through caches for forward resolution.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"registrar/pkg/domain"
)

const (
	keyPrefix = "registrar:resolve:"
	genPrefix = "registrar:resolve:gen:"
	// unresolved marks a cached negative answer.
	unresolved = "-"
	// generationTTL outlives any value TTL so a fill never compares against
	// an expired generation.
	generationTTL = 24 * time.Hour
)

// setScript stores the value only while the name's generation still equals
// the one the reader observed before loading from the store.
var setScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if gen == false then gen = '0' end
if gen ~= ARGV[2] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// invalidateScript bumps the generation and drops the value in one step.
var invalidateScript = redis.NewScript(`
redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
redis.call('DEL', KEYS[1])
return 1
`)

// RedisCache caches Resolve results, including "resolves to nothing".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached target and whether the key was present.
func (c *RedisCache) Get(ctx context.Context, fullName string) (*domain.Account, bool, error) {
	v, err := c.client.Get(ctx, keyPrefix+fullName).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if v == unresolved {
		return nil, true, nil
	}
	a := domain.Account(v)
	return &a, true, nil
}

// Generation returns the invalidation counter of fullName, zero if never
// invalidated.
func (c *RedisCache) Generation(ctx context.Context, fullName string) (uint64, error) {
	v, err := c.client.Get(ctx, genPrefix+fullName).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Set caches target unless fullName was invalidated after generation was
// read. It reports whether the value was stored.
func (c *RedisCache) Set(ctx context.Context, fullName string, target *domain.Account, generation uint64) (bool, error) {
	v := unresolved
	if target != nil {
		v = target.String()
	}
	stored, err := setScript.Run(ctx, c.client,
		[]string{keyPrefix + fullName, genPrefix + fullName},
		v, strconv.FormatUint(generation, 10), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, fullName string) error {
	return invalidateScript.Run(ctx, c.client,
		[]string{keyPrefix + fullName, genPrefix + fullName},
		generationTTL.Milliseconds(),
	).Err()
}
