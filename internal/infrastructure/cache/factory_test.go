package cache

import (
	"testing"

	"github.com/medstock/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewStore_Memory(t *testing.T) {
	store, err := NewStore(config.CacheConfig{Backend: BackendMemory}, config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestNewStore_RedisFallback(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	// Port 1 is never a Redis server, so the ping fails fast.
	store, err := NewStore(
		config.CacheConfig{Backend: BackendRedis},
		config.RedisConfig{Host: "127.0.0.1", Port: 1},
		WithLogger(zap.New(core)),
	)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.Equal(t, 1, logs.FilterMessage("Redis unavailable, falling back to in-memory snapshot cache").Len())
}

func TestNewStore_RedisWithoutFallback(t *testing.T) {
	_, err := NewStore(
		config.CacheConfig{Backend: BackendRedis},
		config.RedisConfig{Host: "127.0.0.1", Port: 1},
		WithInMemoryFallback(false),
	)
	assert.Error(t, err)
}

func TestNewStore_UnknownBackend(t *testing.T) {
	_, err := NewStore(config.CacheConfig{Backend: "memcached"}, config.RedisConfig{})
	assert.Error(t, err)
}
