package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizflow-service/internal/domain"
)

func TestGraphCacheCachesPublishedGraphs(t *testing.T) {
	loader := &countingLoader{graphs: map[string]domain.QuizGraph{
		"v1": sampleGraph("v1", domain.StatusPublished),
	}}
	cache := NewGraphCache(loader, time.Minute)

	if _, err := cache.LoadGraph(context.Background(), "v1"); err != nil {
		t.Fatalf("load graph: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := cache.LoadGraph(context.Background(), "v1"); err != nil {
		t.Fatalf("load graph 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestGraphCacheSkipsDrafts(t *testing.T) {
	loader := &countingLoader{graphs: map[string]domain.QuizGraph{
		"v1": sampleGraph("v1", domain.StatusDraft),
	}}
	cache := NewGraphCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.LoadGraph(context.Background(), "v1"); err != nil {
			t.Fatalf("load graph: %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected drafts to bypass the cache, loader calls %d", loader.calls)
	}
}

func TestGraphCacheExpires(t *testing.T) {
	loader := &countingLoader{graphs: map[string]domain.QuizGraph{
		"v1": sampleGraph("v1", domain.StatusPublished),
	}}
	cache := NewGraphCache(loader, time.Minute)
	now := time.Unix(1000, 0)
	cache.clock = func() time.Time { return now }

	_, _ = cache.LoadGraph(context.Background(), "v1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.LoadGraph(context.Background(), "v1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestGraphCachePassesErrors(t *testing.T) {
	cache := NewGraphCache(&countingLoader{}, time.Minute)
	if _, err := cache.LoadGraph(context.Background(), "missing"); !errors.Is(err, domain.ErrVersionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	graphs map[string]domain.QuizGraph
	calls  int
}

func (l *countingLoader) LoadGraph(_ context.Context, versionID string) (domain.QuizGraph, error) {
	l.calls++
	if graph, ok := l.graphs[versionID]; ok {
		return graph, nil
	}
	return domain.QuizGraph{}, domain.ErrVersionNotFound
}

func sampleGraph(versionID string, status domain.VersionStatus) domain.QuizGraph {
	return domain.QuizGraph{
		Version: domain.QuizVersion{ID: versionID, Name: "sample", Status: status},
		Nodes: []domain.QuizNode{
			{ID: "q", VersionID: versionID, Type: domain.NodeQuestion, Key: "start", Title: "Ready?"},
			{ID: "r", VersionID: versionID, Type: domain.NodeResult, Key: "done", Title: "Done", OrderIndex: 1},
		},
		Edges: []domain.QuizEdge{
			{ID: "qr", VersionID: versionID, FromNodeID: "q", ToNodeID: "r", IsDefault: true},
		},
	}
}
