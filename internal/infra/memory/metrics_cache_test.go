package memory

import (
	"context"
	"testing"
	"time"

	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
)

func TestMetricsCacheHitsOnSameFingerprint(t *testing.T) {
	cache := NewMetricsCache(time.Minute)
	calls := 0
	compute := func() domain.AnalyticsMetrics {
		calls++
		return domain.AnalyticsMetrics{TotalRuns: calls}
	}
	fp := flow.Fingerprint{VersionID: "v1", RunCount: 1, Digest: 42}

	first, _ := cache.GetOrCompute(context.Background(), fp, compute)
	second, _ := cache.GetOrCompute(context.Background(), fp, compute)
	if calls != 1 {
		t.Fatalf("expected one computation, got %d", calls)
	}
	if first.TotalRuns != second.TotalRuns {
		t.Fatalf("expected cached metrics, got %d and %d", first.TotalRuns, second.TotalRuns)
	}

	changed := fp
	changed.Digest = 43
	third, _ := cache.GetOrCompute(context.Background(), changed, compute)
	if calls != 2 || third.TotalRuns != 2 {
		t.Fatalf("expected recompute on new fingerprint, calls %d", calls)
	}
}

func TestMetricsCacheExpires(t *testing.T) {
	cache := NewMetricsCache(time.Minute)
	now := time.Unix(0, 0)
	cache.clock = func() time.Time { return now }
	calls := 0
	compute := func() domain.AnalyticsMetrics {
		calls++
		return domain.AnalyticsMetrics{}
	}
	fp := flow.Fingerprint{VersionID: "v1"}

	_, _ = cache.GetOrCompute(context.Background(), fp, compute)
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetOrCompute(context.Background(), fp, compute)
	if calls != 2 {
		t.Fatalf("expected recompute after ttl, got %d", calls)
	}
}
