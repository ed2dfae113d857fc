package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"saju-backend/internal/domain"
)

func TestRedisStatsCache_Disabled(t *testing.T) {
	ctx := context.Background()
	c := NewRedisStatsCache(nil, time.Minute)

	c.Set(ctx, &domain.AdminStats{UserCount: 3})
	stats, ok := c.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, stats)
	c.Invalidate(ctx)

	var nilCache *RedisStatsCache
	_, ok = nilCache.Get(ctx)
	assert.False(t, ok)
}

func TestRedisStatsCache_UnreachableServerIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ctx := context.Background()
	c := NewRedisStatsCache(client, time.Minute)
	c.Set(ctx, &domain.AdminStats{UserCount: 3})
	_, ok := c.Get(ctx)
	assert.False(t, ok)
	c.Invalidate(ctx)
}

func TestConnect_RejectsNonRedisScheme(t *testing.T) {
	_, err := Connect(context.Background(), "http://localhost:6379")
	assert.Error(t, err)
}
