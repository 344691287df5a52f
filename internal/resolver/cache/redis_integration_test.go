//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"registrar/pkg/domain"
	"registrar/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.cache = NewRedisCache(s.redis.Client, time.Minute)
}

// fill caches target at the current generation and requires it to land.
func (s *RedisCacheSuite) fill(c *RedisCache, fullName string, target *domain.Account) {
	ctx := context.Background()
	gen, err := c.Generation(ctx, fullName)
	s.Require().NoError(err)
	stored, err := c.Set(ctx, fullName, target, gen)
	s.Require().NoError(err)
	s.Require().True(stored)
}

func (s *RedisCacheSuite) TestMissThenHit() {
	ctx := context.Background()
	_, hit, err := s.cache.Get(ctx, "alice.web3")
	s.Require().NoError(err)
	s.False(hit)

	target := domain.Account("0xB")
	s.fill(s.cache, "alice.web3", &target)

	got, hit, err := s.cache.Get(ctx, "alice.web3")
	s.Require().NoError(err)
	s.True(hit)
	s.Equal(target, *got)
}

func (s *RedisCacheSuite) TestNegativeEntry() {
	ctx := context.Background()
	s.fill(s.cache, "bob.web3", nil)

	got, hit, err := s.cache.Get(ctx, "bob.web3")
	s.Require().NoError(err)
	s.True(hit)
	s.Nil(got)
}

func (s *RedisCacheSuite) TestInvalidate() {
	ctx := context.Background()
	target := domain.Account("0xB")
	s.fill(s.cache, "alice.web3", &target)
	s.Require().NoError(s.cache.Invalidate(ctx, "alice.web3"))

	_, hit, err := s.cache.Get(ctx, "alice.web3")
	s.Require().NoError(err)
	s.False(hit)
}

func (s *RedisCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	short := NewRedisCache(s.redis.Client, 50*time.Millisecond)
	s.fill(short, "alice.web3", nil)

	s.Eventually(func() bool {
		_, hit, err := short.Get(ctx, "alice.web3")
		return err == nil && !hit
	}, 2*time.Second, 20*time.Millisecond)
}

func (s *RedisCacheSuite) TestInvalidateBumpsGeneration() {
	ctx := context.Background()
	gen, err := s.cache.Generation(ctx, "alice.web3")
	s.Require().NoError(err)
	s.Equal(uint64(0), gen)

	s.Require().NoError(s.cache.Invalidate(ctx, "alice.web3"))
	s.Require().NoError(s.cache.Invalidate(ctx, "alice.web3"))

	gen, err = s.cache.Generation(ctx, "alice.web3")
	s.Require().NoError(err)
	s.Equal(uint64(2), gen)
}

func (s *RedisCacheSuite) TestFillAfterInvalidationIsDropped() {
	ctx := context.Background()
	gen, err := s.cache.Generation(ctx, "alice.web3")
	s.Require().NoError(err)

	// A write commits between the reader's store load and its cache fill.
	s.Require().NoError(s.cache.Invalidate(ctx, "alice.web3"))

	stale := domain.Account("0xB")
	stored, err := s.cache.Set(ctx, "alice.web3", &stale, gen)
	s.Require().NoError(err)
	s.False(stored)

	_, hit, err := s.cache.Get(ctx, "alice.web3")
	s.Require().NoError(err)
	s.False(hit)
}
