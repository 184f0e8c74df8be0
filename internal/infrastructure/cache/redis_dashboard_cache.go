package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ams/backend/internal/domain/analytics"
	"github.com/ams/backend/internal/infrastructure/config"
)

const dashboardKeyPrefix = "analytics:dashboard:"

// RedisDashboardCache caches dashboard snapshots in Redis so multiple
// instances share the same computed metrics.
type RedisDashboardCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisDashboardCache creates a Redis-backed dashboard cache and
// verifies the connection.
func NewRedisDashboardCache(cfg config.RedisConfig, ttl time.Duration) (*RedisDashboardCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDashboardCacheWithClient(client, ttl), nil
}

// NewRedisDashboardCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or sharing a client across components.
func NewRedisDashboardCacheWithClient(client *redis.Client, ttl time.Duration) *RedisDashboardCache {
	if ttl <= 0 {
		ttl = defaultDashboardTTL
	}
	return &RedisDashboardCache{
		client:    client,
		keyPrefix: dashboardKeyPrefix,
		ttl:       ttl,
	}
}

// Get returns the cached dashboard for a tenant, or (nil, nil) on a miss
func (c *RedisDashboardCache) Get(ctx context.Context, tenantID uuid.UUID) (*analytics.Dashboard, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+tenantID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read dashboard from cache: %w", err)
	}

	var dashboard analytics.Dashboard
	if err := json.Unmarshal(data, &dashboard); err != nil {
		return nil, fmt.Errorf("failed to decode cached dashboard: %w", err)
	}

	return &dashboard, nil
}

// Set stores a dashboard snapshot for a tenant with the configured TTL
func (c *RedisDashboardCache) Set(ctx context.Context, tenantID uuid.UUID, dashboard *analytics.Dashboard) error {
	data, err := json.Marshal(dashboard)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard: %w", err)
	}

	if err := c.client.Set(ctx, c.keyPrefix+tenantID.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write dashboard to cache: %w", err)
	}

	return nil
}

// Invalidate removes a tenant's cached snapshot
func (c *RedisDashboardCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return c.client.Del(ctx, c.keyPrefix+tenantID.String()).Err()
}

// Close closes the underlying Redis client
func (c *RedisDashboardCache) Close() error {
	return c.client.Close()
}
