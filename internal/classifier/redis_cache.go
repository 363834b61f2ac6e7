package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores suggestions as JSON strings.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps client. A nil client yields a nil cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Suggestion, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Suggestion{}, false, nil
	}
	if err != nil {
		return Suggestion{}, false, err
	}
	var suggestion Suggestion
	if err := json.Unmarshal(raw, &suggestion); err != nil {
		return Suggestion{}, false, err
	}
	if !suggestion.Category.Valid() || !suggestion.Priority.Valid() {
		return Suggestion{}, false, nil
	}
	return suggestion, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, suggestion Suggestion, ttl time.Duration) error {
	raw, err := json.Marshal(suggestion)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}
