package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quizflow-service/internal/ctxlog"
	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
)

// MetricsCache shares computed analytics between instances. One hash per
// version holds the latest result and the fingerprint it was computed for:
// HSET quiz:metrics:{versionID} fingerprint {fp} metrics {json}
type MetricsCache struct {
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
}

func NewMetricsCache(client *redis.Client, ttl time.Duration) *MetricsCache {
	return &MetricsCache{client: client, ttl: ttl}
}

// GetOrCompute never fails on Redis errors; it computes and logs instead.
func (c *MetricsCache) GetOrCompute(ctx context.Context, fp flow.Fingerprint, compute func() domain.AnalyticsMetrics) (domain.AnalyticsMetrics, error) {
	if metrics, ok := c.lookup(ctx, fp); ok {
		return metrics, nil
	}
	result, _, _ := c.sf.Do(fp.String(), func() (interface{}, error) {
		if metrics, ok := c.lookup(ctx, fp); ok {
			return metrics, nil
		}
		metrics := compute()
		if err := c.store(ctx, fp, metrics); err != nil {
			ctxlog.FromContext(ctx).Warn("metrics cache write failed", "version", fp.VersionID, "err", err)
		}
		return metrics, nil
	})
	return result.(domain.AnalyticsMetrics), nil
}

func (c *MetricsCache) lookup(ctx context.Context, fp flow.Fingerprint) (domain.AnalyticsMetrics, bool) {
	fields, err := c.client.HGetAll(ctx, metricsKey(fp.VersionID)).Result()
	if err != nil || fields["fingerprint"] != fp.String() {
		return domain.AnalyticsMetrics{}, false
	}
	var metrics domain.AnalyticsMetrics
	if err := json.Unmarshal([]byte(fields["metrics"]), &metrics); err != nil {
		return domain.AnalyticsMetrics{}, false
	}
	return metrics, true
}

func (c *MetricsCache) store(ctx context.Context, fp flow.Fingerprint, metrics domain.AnalyticsMetrics) error {
	body, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	key := metricsKey(fp.VersionID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, "fingerprint", fp.String(), "metrics", body)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func metricsKey(versionID string) string {
	return "quiz:metrics:" + versionID
}
