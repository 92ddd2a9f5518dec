package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "trigger:"

// Store remembers which event ids were already handled.
type Store interface {
	// FirstSeen claims eventID and reports whether this call was the first.
	FirstSeen(ctx context.Context, eventID string) (bool, error)
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Connect configures a Redis client from a redis:// URL.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return client, nil
}

func (s *RedisStore) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+eventID, time.Now().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe claim %s: %w", eventID, err)
	}
	return ok, nil
}

// NoopStore treats every event as new.
type NoopStore struct{}

func (NoopStore) FirstSeen(context.Context, string) (bool, error) { return true, nil }
