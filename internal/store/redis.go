package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "aimaster:"
	defaultRedisTTL = 30 * 24 * time.Hour
	maxWatchRetries = 32
)

// RedisStore keeps each learner key as a Redis string with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore parses a redis:// URL and checks connectivity.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return NewRedisStoreFromClient(client, ttl), nil
}

func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Get refreshes the TTL on every read.
func (s *RedisStore) Get(ctx context.Context, learnerID, key string) ([]byte, error) {
	k := s.key(learnerID, key)
	val, err := s.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_ = s.client.Expire(ctx, k, s.ttl).Err()
	return val, nil
}

func (s *RedisStore) Put(ctx context.Context, learnerID, key string, value []byte) error {
	return s.client.Set(ctx, s.key(learnerID, key), value, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, learnerID, key string) error {
	return s.client.Del(ctx, s.key(learnerID, key)).Err()
}

// Update uses WATCH/MULTI/EXEC and retries when another writer wins the race.
func (s *RedisStore) Update(ctx context.Context, learnerID, key string, fn UpdateFunc) error {
	k := s.key(learnerID, key)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			current = nil
		} else if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: too much contention", key)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(learnerID, key string) string {
	return redisKeyPrefix + learnerID + ":" + key
}
