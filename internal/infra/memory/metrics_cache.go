package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
)

// MetricsCache keeps the latest analytics per version. An entry only serves
// requests carrying the same fingerprint, so new runs or answers miss.
type MetricsCache struct {
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu      sync.RWMutex
	entries map[string]cachedMetrics
}

type cachedMetrics struct {
	fingerprint flow.Fingerprint
	metrics     domain.AnalyticsMetrics
	expiresAt   time.Time
}

func NewMetricsCache(ttl time.Duration) *MetricsCache {
	return &MetricsCache{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]cachedMetrics),
	}
}

func (c *MetricsCache) GetOrCompute(_ context.Context, fp flow.Fingerprint, compute func() domain.AnalyticsMetrics) (domain.AnalyticsMetrics, error) {
	if metrics, ok := c.lookup(fp); ok {
		return metrics, nil
	}
	result, _, _ := c.sf.Do(fp.String(), func() (interface{}, error) {
		if metrics, ok := c.lookup(fp); ok {
			return metrics, nil
		}
		metrics := compute()
		c.mu.Lock()
		c.entries[fp.VersionID] = cachedMetrics{
			fingerprint: fp,
			metrics:     metrics,
			expiresAt:   c.clock().Add(c.ttl),
		}
		c.mu.Unlock()
		return metrics, nil
	})
	return result.(domain.AnalyticsMetrics), nil
}

func (c *MetricsCache) lookup(fp flow.Fingerprint) (domain.AnalyticsMetrics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[fp.VersionID]
	if !ok || entry.fingerprint != fp || !entry.expiresAt.After(c.clock()) {
		return domain.AnalyticsMetrics{}, false
	}
	return entry.metrics, true
}
