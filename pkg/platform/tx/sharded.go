package tx

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "registrar/pkg/domain-errors"
)

// DefaultShards spreads keys across striped locks. Two keys that hash to the
// same shard are serialized against each other, which is safe but slower.
const DefaultShards = 128

// defaultTxTimeout is the maximum duration for a transaction when the caller
// did not set a deadline.
const defaultTxTimeout = 5 * time.Second

// Sharded is the in-memory Runner. Writers hold the shard's write lock for
// the whole callback; readers hold its read lock.
type Sharded struct {
	shards  []sync.RWMutex
	timeout time.Duration
}

// ShardedOption configures a Sharded runner.
type ShardedOption func(*Sharded)

// WithShards overrides the number of lock stripes.
func WithShards(n int) ShardedOption {
	return func(s *Sharded) {
		if n > 0 {
			s.shards = make([]sync.RWMutex, n)
		}
	}
}

// WithTimeout overrides the default transaction timeout.
func WithTimeout(d time.Duration) ShardedOption {
	return func(s *Sharded) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewSharded(opts ...ShardedOption) *Sharded {
	s := &Sharded{
		shards:  make([]sync.RWMutex, DefaultShards),
		timeout: defaultTxTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sharded) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) (err error) {
	shard := s.shardOf(key)
	if j := journalFrom(ctx); j != nil {
		if j.owner == s && j.shard == shard {
			return fn(ctx)
		}
		return dErrors.New(dErrors.CodeInternal, "nested transaction on unrelated key "+key)
	}

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	mu := &s.shards[shard]
	mu.Lock()
	locked := true
	unlock := func() {
		if locked {
			locked = false
			mu.Unlock()
		}
	}
	defer unlock()

	// Check again after acquiring lock; past this point the change either
	// applies completely or not at all and cancellation is ignored.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := newJournal(s, key, shard)
	defer func() {
		if r := recover(); r != nil {
			j.rollback()
			panic(r)
		}
	}()

	if err := fn(withJournal(ctx, j)); err != nil {
		j.rollback()
		return err
	}
	j.commit()
	unlock()
	j.after(context.WithoutCancel(ctx))
	return nil
}

func (s *Sharded) View(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	shard := s.shardOf(key)
	if j := journalFrom(ctx); j != nil && j.owner == s && j.shard == shard {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	mu := &s.shards[shard]
	mu.RLock()
	defer mu.RUnlock()
	return fn(ctx)
}

// ViewAll holds every shard's read lock, so no transaction is mid-flight
// while fn runs. Writers only ever hold one shard, so taking the read locks
// in index order cannot deadlock.
func (s *Sharded) ViewAll(ctx context.Context, fn func(ctx context.Context) error) error {
	if j := journalFrom(ctx); j != nil && j.owner == s {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	for i := range s.shards {
		s.shards[i].RLock()
	}
	defer func() {
		for i := range s.shards {
			s.shards[i].RUnlock()
		}
	}()
	return fn(ctx)
}

// shardOf uses FNV-1a for an even spread of similar names.
func (s *Sharded) shardOf(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.shards)))
}
