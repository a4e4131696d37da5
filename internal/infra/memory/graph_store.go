package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"quizflow-service/internal/domain"
)

// GraphStore is an in-memory implementation of app.GraphStore.
type GraphStore struct {
	mu       sync.RWMutex
	seq      int
	versions map[string]domain.QuizVersion
	nodes    map[string]storedNode
	edges    map[string]storedEdge
}

type storedNode struct {
	node domain.QuizNode
	seq  int
}

type storedEdge struct {
	edge domain.QuizEdge
	seq  int
}

func NewGraphStore() *GraphStore {
	return &GraphStore{
		versions: make(map[string]domain.QuizVersion),
		nodes:    make(map[string]storedNode),
		edges:    make(map[string]storedEdge),
	}
}

func (s *GraphStore) CreateGraph(_ context.Context, graph domain.QuizGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[graph.Version.ID]; ok {
		return fmt.Errorf("version %s already exists", graph.Version.ID)
	}
	keys := make(map[string]bool, len(graph.Nodes))
	ids := make(map[string]bool, len(graph.Nodes))
	for _, n := range graph.Nodes {
		if keys[n.Key] {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateNodeKey, n.Key)
		}
		keys[n.Key] = true
		ids[n.ID] = true
	}
	for _, e := range graph.Edges {
		if !ids[e.FromNodeID] || !ids[e.ToNodeID] {
			return fmt.Errorf("%w: edge %s", domain.ErrUnknownNode, e.ID)
		}
	}

	s.versions[graph.Version.ID] = graph.Version
	for _, n := range graph.Nodes {
		s.seq++
		s.nodes[n.ID] = storedNode{node: n, seq: s.seq}
	}
	for _, e := range graph.Edges {
		s.seq++
		s.edges[e.ID] = storedEdge{edge: e, seq: s.seq}
	}
	return nil
}

func (s *GraphStore) CreateVersion(_ context.Context, version domain.QuizVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[version.ID]; ok {
		return fmt.Errorf("version %s already exists", version.ID)
	}
	s.versions[version.ID] = version
	return nil
}

func (s *GraphStore) GetVersion(_ context.Context, versionID string) (domain.QuizVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[versionID]
	if !ok {
		return domain.QuizVersion{}, domain.ErrVersionNotFound
	}
	return v, nil
}

func (s *GraphStore) UpdateVersion(_ context.Context, version domain.QuizVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[version.ID]; !ok {
		return domain.ErrVersionNotFound
	}
	s.versions[version.ID] = version
	return nil
}

func (s *GraphStore) ListVersions(_ context.Context, name string) ([]domain.QuizVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizVersion, 0, len(s.versions))
	for _, v := range s.versions {
		if name == "" || v.Name == name {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *GraphStore) CreateNode(_ context.Context, node domain.QuizNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[node.VersionID]; !ok {
		return domain.ErrVersionNotFound
	}
	if _, ok := s.nodes[node.ID]; ok {
		return fmt.Errorf("node %s already exists", node.ID)
	}
	if s.keyTakenLocked(node) {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateNodeKey, node.Key)
	}
	s.seq++
	s.nodes[node.ID] = storedNode{node: node, seq: s.seq}
	return nil
}

func (s *GraphStore) UpdateNode(_ context.Context, node domain.QuizNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.nodes[node.ID]
	if !ok {
		return domain.ErrNodeNotFound
	}
	if s.keyTakenLocked(node) {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateNodeKey, node.Key)
	}
	stored.node = node
	s.nodes[node.ID] = stored
	return nil
}

func (s *GraphStore) GetNode(_ context.Context, nodeID string) (domain.QuizNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.nodes[nodeID]
	if !ok {
		return domain.QuizNode{}, domain.ErrNodeNotFound
	}
	return stored.node, nil
}

// DeleteNode removes the node and its edges under one lock.
func (s *GraphStore) DeleteNode(_ context.Context, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[nodeID]; !ok {
		return domain.ErrNodeNotFound
	}
	delete(s.nodes, nodeID)
	for id, stored := range s.edges {
		if stored.edge.FromNodeID == nodeID || stored.edge.ToNodeID == nodeID {
			delete(s.edges, id)
		}
	}
	return nil
}

func (s *GraphStore) CreateEdge(_ context.Context, edge domain.QuizEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[edge.VersionID]; !ok {
		return domain.ErrVersionNotFound
	}
	if _, ok := s.edges[edge.ID]; ok {
		return fmt.Errorf("edge %s already exists", edge.ID)
	}
	if err := s.checkEndpointsLocked(edge); err != nil {
		return err
	}
	s.seq++
	s.edges[edge.ID] = storedEdge{edge: edge, seq: s.seq}
	return nil
}

func (s *GraphStore) UpdateEdge(_ context.Context, edge domain.QuizEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.edges[edge.ID]
	if !ok {
		return domain.ErrEdgeNotFound
	}
	if err := s.checkEndpointsLocked(edge); err != nil {
		return err
	}
	stored.edge = edge
	s.edges[edge.ID] = stored
	return nil
}

func (s *GraphStore) GetEdge(_ context.Context, edgeID string) (domain.QuizEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.edges[edgeID]
	if !ok {
		return domain.QuizEdge{}, domain.ErrEdgeNotFound
	}
	return stored.edge, nil
}

func (s *GraphStore) DeleteEdge(_ context.Context, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[edgeID]; !ok {
		return domain.ErrEdgeNotFound
	}
	delete(s.edges, edgeID)
	return nil
}

// LoadGraph returns nodes by orderIndex then creation order, and edges in
// creation order.
func (s *GraphStore) LoadGraph(_ context.Context, versionID string) (domain.QuizGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	version, ok := s.versions[versionID]
	if !ok {
		return domain.QuizGraph{}, domain.ErrVersionNotFound
	}

	nodes := make([]storedNode, 0)
	for _, stored := range s.nodes {
		if stored.node.VersionID == versionID {
			nodes = append(nodes, stored)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].node.OrderIndex != nodes[j].node.OrderIndex {
			return nodes[i].node.OrderIndex < nodes[j].node.OrderIndex
		}
		return nodes[i].seq < nodes[j].seq
	})
	edges := make([]storedEdge, 0)
	for _, stored := range s.edges {
		if stored.edge.VersionID == versionID {
			edges = append(edges, stored)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].seq < edges[j].seq })

	graph := domain.QuizGraph{
		Version: version,
		Nodes:   make([]domain.QuizNode, 0, len(nodes)),
		Edges:   make([]domain.QuizEdge, 0, len(edges)),
	}
	for _, n := range nodes {
		graph.Nodes = append(graph.Nodes, n.node)
	}
	for _, e := range edges {
		graph.Edges = append(graph.Edges, e.edge)
	}
	return graph, nil
}

func (s *GraphStore) keyTakenLocked(node domain.QuizNode) bool {
	for _, stored := range s.nodes {
		other := stored.node
		if other.VersionID == node.VersionID && other.ID != node.ID && other.Key == node.Key {
			return true
		}
	}
	return false
}

func (s *GraphStore) checkEndpointsLocked(edge domain.QuizEdge) error {
	for _, id := range []string{edge.FromNodeID, edge.ToNodeID} {
		stored, ok := s.nodes[id]
		if !ok || stored.node.VersionID != edge.VersionID {
			return fmt.Errorf("%w: %s", domain.ErrUnknownNode, id)
		}
	}
	return nil
}
