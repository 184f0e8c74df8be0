package cache

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	analyticsapp "github.com/ams/backend/internal/application/analytics"
	"github.com/ams/backend/internal/infrastructure/config"
)

// DashboardCacheFactory creates dashboard caches based on configuration
type DashboardCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DashboardCacheFactoryOption configures the factory
type DashboardCacheFactoryOption func(*DashboardCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DashboardCacheFactoryOption {
	return func(f *DashboardCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) DashboardCacheFactoryOption {
	return func(f *DashboardCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDashboardCacheFactory creates a new factory
func NewDashboardCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...DashboardCacheFactoryOption) *DashboardCacheFactory {
	f := &DashboardCacheFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Create returns a Redis-backed cache when Redis is reachable, otherwise
// an in-memory cache if fallback is allowed.
func (f *DashboardCacheFactory) Create() (analyticsapp.DashboardCache, error) {
	redisCache, err := NewRedisDashboardCache(f.redisConfig, f.ttl)
	if err == nil {
		f.logger.Info("using Redis dashboard cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return redisCache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis dashboard cache unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory dashboard cache",
		zap.Error(err))
	return NewInMemoryDashboardCache(
		WithInMemoryTTL(f.ttl),
		WithInMemoryLogger(f.logger),
	), nil
}
