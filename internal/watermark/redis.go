package watermark

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the watermark in a hash under one key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// ConnectRedis parses redisURL and verifies connectivity.
func ConnectRedis(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{rdb: client, key: key}, nil
}

func (s *RedisStore) GetLastJob(ctx context.Context) (*Watermark, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", s.key, err)
	}
	if !recorded(fields["job_title"]) {
		log.Printf("📋 No last job found in Redis key %s", s.key)
		return nil, nil
	}

	w := &Watermark{JobTitle: fields["job_title"], CompanyName: fields["company_name"]}
	w.UpdatedAt, _ = time.Parse(time.RFC3339, fields["updated_at"])
	return w, nil
}

func (s *RedisStore) SaveLastJob(ctx context.Context, w Watermark) error {
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = time.Now().UTC()
	}
	err := s.rdb.HSet(ctx, s.key, map[string]any{
		"job_title":    w.JobTitle,
		"company_name": w.CompanyName,
		"updated_at":   w.UpdatedAt.Format(time.RFC3339),
	}).Err()
	if err != nil {
		return fmt.Errorf("redis HSET %s: %w", s.key, err)
	}
	log.Printf("💾 Last job saved to Redis: %s", w)
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
