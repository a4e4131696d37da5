package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quizflow-service/internal/domain"
)

// GraphLoader fetches a quiz graph from a backing store (e.g., Postgres).
type GraphLoader interface {
	LoadGraph(ctx context.Context, versionID string) (domain.QuizGraph, error)
}

// GraphCache caches published graphs with TTL to avoid repeated DB hits.
// Drafts change under the editor, so they always go to the loader.
type GraphCache struct {
	loader GraphLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedGraph
}

type cachedGraph struct {
	graph     domain.QuizGraph
	expiresAt time.Time
}

func NewGraphCache(loader GraphLoader, ttl time.Duration) *GraphCache {
	return &GraphCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedGraph),
	}
}

func (c *GraphCache) LoadGraph(ctx context.Context, versionID string) (domain.QuizGraph, error) {
	if graph, ok := c.lookup(versionID); ok {
		return graph, nil
	}

	result, err, _ := c.sf.Do(versionID, func() (interface{}, error) {
		if graph, ok := c.lookup(versionID); ok {
			return graph, nil
		}
		now := c.clock()

		graph, err := c.loader.LoadGraph(ctx, versionID)
		if err != nil {
			return domain.QuizGraph{}, err
		}
		if !graph.Version.IsPublished() {
			return graph, nil
		}

		c.mu.Lock()
		c.cache[versionID] = cachedGraph{
			graph:     graph,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return graph, nil
	})
	if err != nil {
		return domain.QuizGraph{}, err
	}
	return result.(domain.QuizGraph), nil
}

func (c *GraphCache) lookup(versionID string) (domain.QuizGraph, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[versionID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.QuizGraph{}, false
	}
	return entry.graph, true
}

func (c *GraphCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
