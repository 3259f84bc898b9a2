package cache

import (
	"fmt"

	"github.com/medstock/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Backend names accepted by NewStore
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// FactoryOption configures store creation
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	logger           *zap.Logger
	inMemoryFallback bool
	memoryOpts       []MemoryStoreOption
}

// WithLogger sets the logger used to report backend selection
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(o *factoryOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback falls back to a MemoryStore when Redis is unreachable
func WithInMemoryFallback(enabled bool) FactoryOption {
	return func(o *factoryOptions) {
		o.inMemoryFallback = enabled
	}
}

// WithMemoryOptions passes options through to the MemoryStore
func WithMemoryOptions(opts ...MemoryStoreOption) FactoryOption {
	return func(o *factoryOptions) {
		o.memoryOpts = append(o.memoryOpts, opts...)
	}
}

// NewStore creates the snapshot store selected by cacheCfg.Backend.
func NewStore(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) (Store, error) {
	options := &factoryOptions{
		logger:           zap.NewNop(),
		inMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(options)
	}

	switch cacheCfg.Backend {
	case "", BackendMemory:
		options.logger.Info("Using in-memory snapshot cache")
		return NewMemoryStore(options.memoryOpts...), nil
	case BackendRedis:
		store, err := NewRedisStore(RedisConfig{
			Host:     redisCfg.Host,
			Port:     redisCfg.Port,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		}, cacheCfg.KeyPrefix)
		if err == nil {
			options.logger.Info("Using Redis snapshot cache",
				zap.String("host", redisCfg.Host),
				zap.Int("port", redisCfg.Port),
			)
			return store, nil
		}
		if !options.inMemoryFallback {
			return nil, err
		}
		options.logger.Warn("Redis unavailable, falling back to in-memory snapshot cache",
			zap.Error(err),
		)
		return NewMemoryStore(options.memoryOpts...), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cacheCfg.Backend)
	}
}
