package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "evroute:cache:"

// RedisStore keeps cache entries in Redis with native key expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis cache: get %q: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("redis cache: decode %q: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis cache: encode %q: %w", key, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set %q: %w", key, err)
	}
	return nil
}

// NewRedisClient connects and pings Redis. When nrApp is set every command
// is recorded as a New Relic datastore segment.
func NewRedisClient(ctx context.Context, addr, password string, db int, nrApp *newrelic.Application) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if nrApp != nil {
		client.AddHook(nrRedisHook{})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

type nrRedisHook struct{}

func (nrRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (nrRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		defer startSegment(ctx, cmd.Name()).End()
		return next(ctx, cmd)
	}
}

func (nrRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		defer startSegment(ctx, "pipeline").End()
		return next(ctx, cmds)
	}
}

// startSegment returns a no-op segment when ctx carries no transaction.
func startSegment(ctx context.Context, op string) *newrelic.DatastoreSegment {
	txn := newrelic.FromContext(ctx)
	return &newrelic.DatastoreSegment{
		StartTime:  txn.StartSegmentNow(),
		Product:    newrelic.DatastoreRedis,
		Operation:  op,
		Collection: "cache",
	}
}
