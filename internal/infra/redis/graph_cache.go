package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quizflow-service/internal/ctxlog"
	"quizflow-service/internal/domain"
)

// GraphLoader fetches a quiz graph from a backing store (e.g., Postgres).
type GraphLoader interface {
	LoadGraph(ctx context.Context, versionID string) (domain.QuizGraph, error)
}

// GraphCache caches published graphs in Redis (hash per version) and falls
// back to a loader on cache miss. Graphs are stored as:
// HSET quiz:graph:{versionID} version {json} nodes {json} edges {json}
type GraphCache struct {
	client *redis.Client
	loader GraphLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewGraphCache(client *redis.Client, loader GraphLoader, ttl time.Duration) *GraphCache {
	return &GraphCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *GraphCache) LoadGraph(ctx context.Context, versionID string) (domain.QuizGraph, error) {
	if graph, ok := c.fromCache(ctx, versionID); ok {
		return graph, nil
	}

	result, err, _ := c.sf.Do(versionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if graph, ok := c.fromCache(ctx, versionID); ok {
			return graph, nil
		}

		graph, err := c.loader.LoadGraph(ctx, versionID)
		if err != nil {
			return domain.QuizGraph{}, err
		}
		if graph.Version.IsPublished() {
			if err := c.store(ctx, graph); err != nil {
				ctxlog.FromContext(ctx).Warn("graph cache write failed", "version", versionID, "err", err)
			}
		}
		return graph, nil
	})
	if err != nil {
		return domain.QuizGraph{}, err
	}
	return result.(domain.QuizGraph), nil
}

func (c *GraphCache) fromCache(ctx context.Context, versionID string) (domain.QuizGraph, bool) {
	fields, err := c.client.HGetAll(ctx, graphKey(versionID)).Result()
	if err != nil || len(fields) == 0 {
		return domain.QuizGraph{}, false
	}
	var graph domain.QuizGraph
	if err := json.Unmarshal([]byte(fields["version"]), &graph.Version); err != nil {
		return domain.QuizGraph{}, false
	}
	if err := json.Unmarshal([]byte(fields["nodes"]), &graph.Nodes); err != nil {
		return domain.QuizGraph{}, false
	}
	if err := json.Unmarshal([]byte(fields["edges"]), &graph.Edges); err != nil {
		return domain.QuizGraph{}, false
	}
	return graph, true
}

func (c *GraphCache) store(ctx context.Context, graph domain.QuizGraph) error {
	version, err := json.Marshal(graph.Version)
	if err != nil {
		return fmt.Errorf("encode version: %w", err)
	}
	nodes, err := json.Marshal(graph.Nodes)
	if err != nil {
		return fmt.Errorf("encode nodes: %w", err)
	}
	edges, err := json.Marshal(graph.Edges)
	if err != nil {
		return fmt.Errorf("encode edges: %w", err)
	}

	key := graphKey(graph.Version.ID)
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, "version", version, "nodes", nodes, "edges", edges)
	if ttl := c.ttlWithJitter(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func graphKey(versionID string) string {
	return "quiz:graph:" + versionID
}

func (c *GraphCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
