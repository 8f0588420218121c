package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop_NeverHits(t *testing.T) {
	var c StatsCache = Noop{}
	require.NoError(t, c.Set(context.Background(), "overview", map[string]int{"a": 1}))

	var dest map[string]int
	hit, err := c.Get(context.Background(), "overview", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Invalidate(context.Background()))
}

func TestRedisCache_UnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewRedisCache(client, time.Minute)

	var dest map[string]int
	hit, err := c.Get(context.Background(), "overview", &dest)
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Error(t, c.Set(context.Background(), "overview", dest))
}
