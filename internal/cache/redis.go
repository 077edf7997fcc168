package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQuizCache stores entries as JSON under quiz:<id>.
type RedisQuizCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisQuizCache(client *redis.Client, ttl time.Duration) *RedisQuizCache {
	return &RedisQuizCache{client: client, ttl: ttl}
}

func (c *RedisQuizCache) Get(ctx context.Context, quizID int) (*Entry, bool) {
	data, err := c.client.Get(ctx, cacheKey(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Quiz cache read failed for %d: %v", quizID, err)
		}
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		log.Printf("Discarding unreadable cache entry for quiz %d: %v", quizID, err)
		c.client.Del(ctx, cacheKey(quizID))
		return nil, false
	}
	return &e, true
}

func (c *RedisQuizCache) Set(ctx context.Context, e Entry) error {
	if e.Quiz.ID == 0 {
		return errZeroQuiz
	}
	if e.CachedAt.IsZero() {
		e.CachedAt = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(e.Quiz.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Invalidate drops a quiz so the next session start refetches it.
func (c *RedisQuizCache) Invalidate(ctx context.Context, quizID int) error {
	return c.client.Del(ctx, cacheKey(quizID)).Err()
}
