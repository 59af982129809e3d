// Package external contains the annotation provider clients injected into
// the classification engine: population frequency lookup and computational
// prediction scores, with Redis and in-process caching in front of them.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acmg-evidence-engine/internal/domain"
)

// RedisCache caches provider responses across process restarts. All entries
// carry a TTL so stale annotation data ages out on its own.
type RedisCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(redisURL string, defaultTTL time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}

	return &RedisCache{
		redis:      client,
		defaultTTL: defaultTTL,
	}, nil
}

// GetPopulation retrieves a cached population record. The second return
// value reports a cache hit; a miss is not an error.
func (c *RedisCache) GetPopulation(ctx context.Context, key string) (*domain.PopulationRecord, bool, error) {
	val, err := c.redis.Get(ctx, populationKey(key)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get population cache: %w", err)
	}

	var record domain.PopulationRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		// Corrupted entry: drop it and treat as a miss.
		c.redis.Del(ctx, populationKey(key))
		return nil, false, nil
	}
	return &record, true, nil
}

// SetPopulation caches a population record.
func (c *RedisCache) SetPopulation(ctx context.Context, key string, record *domain.PopulationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode population record: %w", err)
	}
	if err := c.redis.Set(ctx, populationKey(key), payload, c.defaultTTL).Err(); err != nil {
		return fmt.Errorf("failed to set population cache: %w", err)
	}
	return nil
}

// GetPredictions retrieves cached prediction scores.
func (c *RedisCache) GetPredictions(ctx context.Context, key string) (*domain.PredictionScores, bool, error) {
	val, err := c.redis.Get(ctx, predictionsKey(key)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get predictions cache: %w", err)
	}

	var scores domain.PredictionScores
	if err := json.Unmarshal([]byte(val), &scores); err != nil {
		c.redis.Del(ctx, predictionsKey(key))
		return nil, false, nil
	}
	return &scores, true, nil
}

// SetPredictions caches prediction scores.
func (c *RedisCache) SetPredictions(ctx context.Context, key string, scores *domain.PredictionScores) error {
	payload, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("failed to encode prediction scores: %w", err)
	}
	if err := c.redis.Set(ctx, predictionsKey(key), payload, c.defaultTTL).Err(); err != nil {
		return fmt.Errorf("failed to set predictions cache: %w", err)
	}
	return nil
}

// Health checks the Redis connection.
func (c *RedisCache) Health(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}

func populationKey(key string) string {
	return "freq:" + key
}

func predictionsKey(key string) string {
	return "pred:" + key
}
