// Package cache holds the Redis-backed cache for the admin dashboard.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
)

const statsKey = "saju:admin:stats"

type StatsCache interface {
	Get(ctx context.Context) (*domain.AdminStats, bool)
	Set(ctx context.Context, stats *domain.AdminStats)
	Invalidate(ctx context.Context)
}

// Connect parses url (with or without the redis:// scheme) and pings the
// server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if !strings.Contains(url, "://") {
		url = "redis://" + url
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisStatsCache treats every Redis failure as a cache miss. A nil client
// disables caching entirely.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatsCache(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context) (*domain.AdminStats, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	cached, err := c.client.Get(ctx, statsKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.ExternalServiceResult("redis", "GET", err)
		}
		return nil, false
	}
	var stats domain.AdminStats
	if err := json.Unmarshal([]byte(cached), &stats); err != nil {
		logger.Warn("Discarding unreadable cached stats", "error", err)
		return nil, false
	}
	return &stats, true
}

func (c *RedisStatsCache) Set(ctx context.Context, stats *domain.AdminStats) {
	if c == nil || c.client == nil || stats == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.SetEx(ctx, statsKey, data, c.ttl).Err(); err != nil {
		logger.ExternalServiceResult("redis", "SETEX", err)
	}
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		logger.ExternalServiceResult("redis", "DEL", err)
	}
}
