package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ams/backend/internal/domain/analytics"
)

const (
	defaultDashboardTTL    = 5 * time.Minute
	defaultCleanupInterval = 30 * time.Second
)

// InMemoryDashboardCache caches dashboard snapshots per tenant in process
// memory. Suitable for single-instance deployments and as a fallback when
// Redis is unavailable.
type InMemoryDashboardCache struct {
	entries sync.Map // map[uuid.UUID]*dashboardEntry
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type dashboardEntry struct {
	dashboard *analytics.Dashboard
	expiresAt time.Time
}

func (e *dashboardEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryDashboardCacheOption configures the cache
type InMemoryDashboardCacheOption func(*InMemoryDashboardCache)

// WithInMemoryTTL sets the snapshot time-to-live
func WithInMemoryTTL(ttl time.Duration) InMemoryDashboardCacheOption {
	return func(c *InMemoryDashboardCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryDashboardCacheOption {
	return func(c *InMemoryDashboardCache) {
		c.logger = logger
	}
}

// NewInMemoryDashboardCache creates a new in-memory dashboard cache and
// starts its background cleanup goroutine. Call Stop when done.
func NewInMemoryDashboardCache(opts ...InMemoryDashboardCacheOption) *InMemoryDashboardCache {
	cache := &InMemoryDashboardCache{
		ttl:    defaultDashboardTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanupLoop()

	return cache
}

// Get returns the cached dashboard for a tenant, or (nil, nil) on a miss
func (c *InMemoryDashboardCache) Get(_ context.Context, tenantID uuid.UUID) (*analytics.Dashboard, error) {
	value, ok := c.entries.Load(tenantID)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return nil, nil
	}

	entry := value.(*dashboardEntry)
	if entry.isExpired() {
		c.entries.Delete(tenantID)
		atomic.AddInt64(&c.misses, 1)
		return nil, nil
	}

	atomic.AddInt64(&c.hits, 1)
	return entry.dashboard, nil
}

// Set stores a dashboard snapshot for a tenant
func (c *InMemoryDashboardCache) Set(_ context.Context, tenantID uuid.UUID, dashboard *analytics.Dashboard) error {
	c.entries.Store(tenantID, &dashboardEntry{
		dashboard: dashboard,
		expiresAt: time.Now().Add(c.ttl),
	})
	return nil
}

// Invalidate removes a tenant's cached snapshot
func (c *InMemoryDashboardCache) Invalidate(_ context.Context, tenantID uuid.UUID) {
	c.entries.Delete(tenantID)
}

// Stats returns cache hit/miss counters
func (c *InMemoryDashboardCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Stop halts the cleanup goroutine. Safe to call more than once.
func (c *InMemoryDashboardCache) Stop() {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
}

func (c *InMemoryDashboardCache) cleanupLoop() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *InMemoryDashboardCache) removeExpired() {
	removed := 0
	c.entries.Range(func(key, value interface{}) bool {
		if value.(*dashboardEntry).isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("removed expired dashboard snapshots", zap.Int("count", removed))
	}
}
