package genstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGenStore keeps namespace epochs in redis so replicas sharing one
// provider agree on what a Clear invalidated, across restarts too.
//
// An epoch TTL is only safe when it exceeds the entry TTL: an expired epoch
// reads as 0 and would revive entries written under epoch 0.
type RedisGenStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ GenStore = (*RedisGenStore)(nil)

// NewRedisGenStore stores epochs under "gen:<namespace>:" without expiry.
func NewRedisGenStore(client redis.UniversalClient, namespace string) *RedisGenStore {
	return NewRedisGenStoreWithTTL(client, namespace, 0)
}

// NewRedisGenStoreWithTTL refreshes ttl on every Bump; ttl <= 0 disables it.
func NewRedisGenStoreWithTTL(client redis.UniversalClient, namespace string, ttl time.Duration) *RedisGenStore {
	return &RedisGenStore{rdb: client, prefix: "gen:" + namespace + ":", ttl: ttl}
}

func (s *RedisGenStore) Snapshot(ctx context.Context, key string) (uint64, error) {
	epoch, err := s.rdb.Get(ctx, s.prefix+key).Uint64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("genstore: read epoch %q: %w", key, err)
	}
	return epoch, nil
}

// Bump increments the epoch. With a TTL, INCR and EXPIRE share one round trip.
func (s *RedisGenStore) Bump(ctx context.Context, key string) (uint64, error) {
	k := s.prefix + key
	if s.ttl <= 0 {
		n, err := s.rdb.Incr(ctx, k).Uint64()
		if err != nil {
			return 0, fmt.Errorf("genstore: bump epoch %q: %w", key, err)
		}
		return n, nil
	}

	var incr *redis.IntCmd
	if _, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, s.ttl)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("genstore: bump epoch %q: %w", key, err)
	}
	return incr.Uint64()
}

// Cleanup does nothing; redis expires epochs itself when a TTL is set.
func (s *RedisGenStore) Cleanup(time.Duration) {}

// Close does nothing. The client is shared with the provider.
func (s *RedisGenStore) Close(context.Context) error { return nil }
