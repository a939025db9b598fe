package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit-pro/audit-engine/internal/config"
)

type cachedSummary struct {
	AuditID int
	Score   int
	Status  string
}

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := cachedSummary{AuditID: 11, Score: 80, Status: "completed"}
	err := cache.Set("audit:11", expected, 10*time.Minute)
	require.NoError(t, err)

	var actual cachedSummary
	found, err := cache.Get("audit:11", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out cachedSummary
	found, err := cache.Get("audit:404", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Set("audit:11", cachedSummary{AuditID: 11}, 10*time.Minute)
	require.NoError(t, err)

	err = cache.Invalidate("audit:11")
	require.NoError(t, err)

	var out cachedSummary
	found, err := cache.Get("audit:11", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Db.Set(context.Background(), "audit:bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out cachedSummary
	found, err := cache.Get("audit:bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:9999",
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}
