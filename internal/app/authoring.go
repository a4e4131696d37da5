package app

import (
	"context"
	"fmt"

	"quizflow-service/internal/ctxlog"
	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
)

// CreateVersion starts a new draft quiz.
func (s *FlowService) CreateVersion(ctx context.Context, name, createdBy string) (domain.QuizVersion, error) {
	if name == "" {
		return domain.QuizVersion{}, fmt.Errorf("%w: name is required", domain.ErrInvalidVersion)
	}
	now := s.now()
	version := domain.QuizVersion{
		ID:        s.newID(),
		Name:      name,
		Status:    domain.StatusDraft,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.graphs.CreateVersion(ctx, version); err != nil {
		return domain.QuizVersion{}, err
	}
	return version, nil
}

// GetGraph returns a version with its nodes and edges, drafts included.
func (s *FlowService) GetGraph(ctx context.Context, versionID string) (domain.QuizGraph, error) {
	return s.graphs.LoadGraph(ctx, versionID)
}

// ListVersions lists versions of a quiz, or every version when name is empty.
func (s *FlowService) ListVersions(ctx context.Context, name string) ([]domain.QuizVersion, error) {
	return s.graphs.ListVersions(ctx, name)
}

// ActiveVersion returns the most recently published version of a quiz.
func (s *FlowService) ActiveVersion(ctx context.Context, name string) (domain.QuizVersion, error) {
	versions, err := s.graphs.ListVersions(ctx, name)
	if err != nil {
		return domain.QuizVersion{}, err
	}
	var active *domain.QuizVersion
	for i := range versions {
		v := &versions[i]
		if !v.IsPublished() || v.PublishedAt == nil {
			continue
		}
		if active == nil || v.PublishedAt.After(*active.PublishedAt) {
			active = v
		}
	}
	if active == nil {
		return domain.QuizVersion{}, domain.ErrNoActiveVersion
	}
	return *active, nil
}

// AddNode adds a node to a draft. An empty ID is generated.
func (s *FlowService) AddNode(ctx context.Context, versionID string, node domain.QuizNode) (domain.QuizNode, error) {
	graph, err := s.draftGraph(ctx, versionID)
	if err != nil {
		return domain.QuizNode{}, err
	}
	if node.ID == "" {
		node.ID = s.newID()
	}
	node.VersionID = versionID
	if err := checkNode(graph, node); err != nil {
		return domain.QuizNode{}, err
	}
	if err := s.graphs.CreateNode(ctx, node); err != nil {
		return domain.QuizNode{}, err
	}
	return node, s.touch(ctx, graph.Version)
}

// UpdateNode replaces a node of a draft.
func (s *FlowService) UpdateNode(ctx context.Context, versionID string, node domain.QuizNode) (domain.QuizNode, error) {
	graph, err := s.draftGraph(ctx, versionID)
	if err != nil {
		return domain.QuizNode{}, err
	}
	if _, ok := graph.NodeByID(node.ID); !ok {
		return domain.QuizNode{}, domain.ErrNodeNotFound
	}
	node.VersionID = versionID
	if err := checkNode(graph, node); err != nil {
		return domain.QuizNode{}, err
	}
	if err := s.graphs.UpdateNode(ctx, node); err != nil {
		return domain.QuizNode{}, err
	}
	return node, s.touch(ctx, graph.Version)
}

// DeleteNode removes a node and every edge referencing it.
func (s *FlowService) DeleteNode(ctx context.Context, versionID, nodeID string) error {
	graph, err := s.draftGraph(ctx, versionID)
	if err != nil {
		return err
	}
	if _, ok := graph.NodeByID(nodeID); !ok {
		return domain.ErrNodeNotFound
	}
	if err := s.graphs.DeleteNode(ctx, nodeID); err != nil {
		return err
	}
	return s.touch(ctx, graph.Version)
}

// AddEdge connects two nodes of a draft. An empty ID is generated.
func (s *FlowService) AddEdge(ctx context.Context, versionID string, edge domain.QuizEdge) (domain.QuizEdge, error) {
	graph, err := s.draftGraph(ctx, versionID)
	if err != nil {
		return domain.QuizEdge{}, err
	}
	if edge.ID == "" {
		edge.ID = s.newID()
	}
	edge.VersionID = versionID
	if err := checkEdge(graph, edge); err != nil {
		return domain.QuizEdge{}, err
	}
	if err := s.graphs.CreateEdge(ctx, edge); err != nil {
		return domain.QuizEdge{}, err
	}
	return edge, s.touch(ctx, graph.Version)
}

// UpdateEdge replaces an edge of a draft.
func (s *FlowService) UpdateEdge(ctx context.Context, versionID string, edge domain.QuizEdge) (domain.QuizEdge, error) {
	graph, err := s.draftGraph(ctx, versionID)
	if err != nil {
		return domain.QuizEdge{}, err
	}
	if !hasEdge(graph, edge.ID) {
		return domain.QuizEdge{}, domain.ErrEdgeNotFound
	}
	edge.VersionID = versionID
	if err := checkEdge(graph, edge); err != nil {
		return domain.QuizEdge{}, err
	}
	if err := s.graphs.UpdateEdge(ctx, edge); err != nil {
		return domain.QuizEdge{}, err
	}
	return edge, s.touch(ctx, graph.Version)
}

// DeleteEdge removes an edge from a draft.
func (s *FlowService) DeleteEdge(ctx context.Context, versionID, edgeID string) error {
	graph, err := s.draftGraph(ctx, versionID)
	if err != nil {
		return err
	}
	if !hasEdge(graph, edgeID) {
		return domain.ErrEdgeNotFound
	}
	if err := s.graphs.DeleteEdge(ctx, edgeID); err != nil {
		return err
	}
	return s.touch(ctx, graph.Version)
}

// ValidateVersion runs the structure validator over a version.
func (s *FlowService) ValidateVersion(ctx context.Context, versionID string) (flow.ValidationResult, error) {
	graph, err := s.graphs.LoadGraph(ctx, versionID)
	if err != nil {
		return flow.ValidationResult{}, err
	}
	return flow.Validate(graph.Nodes, graph.Edges), nil
}

// PublishVersion freezes a draft after it passes validation. Warnings are
// returned with the published version; errors return a *ValidationError.
func (s *FlowService) PublishVersion(ctx context.Context, versionID string) (domain.QuizVersion, flow.ValidationResult, error) {
	logger := ctxlog.FromContext(ctx)

	graph, err := s.graphs.LoadGraph(ctx, versionID)
	if err != nil {
		return domain.QuizVersion{}, flow.ValidationResult{}, err
	}
	if graph.Version.IsPublished() {
		return graph.Version, flow.ValidationResult{}, domain.ErrVersionPublished
	}

	result := flow.Validate(graph.Nodes, graph.Edges)
	if !result.IsValid {
		logger.Info("publish rejected", "version", versionID, "errors", len(result.Errors))
		return graph.Version, result, &ValidationError{Result: result}
	}

	now := s.now()
	version := graph.Version
	version.Status = domain.StatusPublished
	version.PublishedAt = &now
	version.UpdatedAt = now
	if err := s.graphs.UpdateVersion(ctx, version); err != nil {
		return domain.QuizVersion{}, result, err
	}
	logger.Info("version published", "version", versionID, "name", version.Name, "warnings", len(result.Warnings))
	return version, result, nil
}

// ForkVersion copies any version into a new draft with fresh ids.
func (s *FlowService) ForkVersion(ctx context.Context, versionID, createdBy string) (domain.QuizGraph, error) {
	src, err := s.graphs.LoadGraph(ctx, versionID)
	if err != nil {
		return domain.QuizGraph{}, err
	}

	now := s.now()
	fork := domain.QuizGraph{
		Version: domain.QuizVersion{
			ID:        s.newID(),
			Name:      src.Version.Name,
			Status:    domain.StatusDraft,
			CreatedBy: createdBy,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Nodes: make([]domain.QuizNode, 0, len(src.Nodes)),
		Edges: make([]domain.QuizEdge, 0, len(src.Edges)),
	}
	ids := make(map[string]string, len(src.Nodes))
	for _, n := range src.Nodes {
		ids[n.ID] = s.newID()
		n.ID = ids[n.ID]
		n.VersionID = fork.Version.ID
		fork.Nodes = append(fork.Nodes, n)
	}
	for _, e := range src.Edges {
		from, okFrom := ids[e.FromNodeID]
		to, okTo := ids[e.ToNodeID]
		if !okFrom || !okTo {
			continue
		}
		e.ID = s.newID()
		e.VersionID = fork.Version.ID
		e.FromNodeID = from
		e.ToNodeID = to
		fork.Edges = append(fork.Edges, e)
	}

	if err := s.graphs.CreateGraph(ctx, fork); err != nil {
		return domain.QuizGraph{}, err
	}
	return fork, nil
}

func (s *FlowService) draftGraph(ctx context.Context, versionID string) (domain.QuizGraph, error) {
	graph, err := s.graphs.LoadGraph(ctx, versionID)
	if err != nil {
		return domain.QuizGraph{}, err
	}
	if graph.Version.IsPublished() {
		return domain.QuizGraph{}, domain.ErrVersionPublished
	}
	return graph, nil
}

func (s *FlowService) touch(ctx context.Context, version domain.QuizVersion) error {
	version.UpdatedAt = s.now()
	return s.graphs.UpdateVersion(ctx, version)
}

func checkNode(graph domain.QuizGraph, node domain.QuizNode) error {
	if !node.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidNode, node.Type)
	}
	if node.Key == "" {
		return fmt.Errorf("%w: key is required", domain.ErrInvalidNode)
	}
	for _, other := range graph.Nodes {
		if other.ID != node.ID && other.Key == node.Key {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateNodeKey, node.Key)
		}
	}
	return nil
}

func checkEdge(graph domain.QuizGraph, edge domain.QuizEdge) error {
	if _, ok := graph.NodeByID(edge.FromNodeID); !ok {
		return fmt.Errorf("%w: from %s", domain.ErrUnknownNode, edge.FromNodeID)
	}
	if _, ok := graph.NodeByID(edge.ToNodeID); !ok {
		return fmt.Errorf("%w: to %s", domain.ErrUnknownNode, edge.ToNodeID)
	}
	if edge.Condition != nil {
		if err := edge.Condition.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func hasEdge(graph domain.QuizGraph, edgeID string) bool {
	for _, e := range graph.Edges {
		if e.ID == edgeID {
			return true
		}
	}
	return false
}
