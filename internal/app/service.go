package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
)

// GraphReader loads a version with its nodes and edges.
type GraphReader interface {
	LoadGraph(ctx context.Context, versionID string) (domain.QuizGraph, error)
}

// GraphStore persists quiz versions, nodes and edges. DeleteNode must remove
// the edges referencing the node in the same operation.
type GraphStore interface {
	GraphReader
	CreateGraph(ctx context.Context, graph domain.QuizGraph) error
	CreateVersion(ctx context.Context, version domain.QuizVersion) error
	GetVersion(ctx context.Context, versionID string) (domain.QuizVersion, error)
	UpdateVersion(ctx context.Context, version domain.QuizVersion) error
	ListVersions(ctx context.Context, name string) ([]domain.QuizVersion, error)
	CreateNode(ctx context.Context, node domain.QuizNode) error
	UpdateNode(ctx context.Context, node domain.QuizNode) error
	GetNode(ctx context.Context, nodeID string) (domain.QuizNode, error)
	DeleteNode(ctx context.Context, nodeID string) error
	CreateEdge(ctx context.Context, edge domain.QuizEdge) error
	UpdateEdge(ctx context.Context, edge domain.QuizEdge) error
	GetEdge(ctx context.Context, edgeID string) (domain.QuizEdge, error)
	DeleteEdge(ctx context.Context, edgeID string) error
}

// RunStore persists runs. RecordResponse and CompleteRun must serialize
// writes to the same run.
type RunStore interface {
	CreateRun(ctx context.Context, run domain.QuizRun) error
	GetRun(ctx context.Context, runID string) (domain.QuizRun, error)
	RecordResponse(ctx context.Context, runID, nodeKey string, value any) (domain.QuizRun, error)
	CompleteRun(ctx context.Context, runID string, at time.Time) (domain.QuizRun, error)
	ListRuns(ctx context.Context, versionID string) ([]domain.QuizRun, error)
}

// CursorStore remembers the node each open run is waiting on.
type CursorStore interface {
	SetCursor(ctx context.Context, runID, nodeID string) error
	Cursor(ctx context.Context, runID string) (string, bool, error)
	ClearCursor(ctx context.Context, runID string) error
}

// MetricsCache memoizes analytics per run-set fingerprint.
type MetricsCache interface {
	GetOrCompute(ctx context.Context, fp flow.Fingerprint, compute func() domain.AnalyticsMetrics) (domain.AnalyticsMetrics, error)
}

// FlowService contains the authoring, runtime and reporting use cases.
type FlowService struct {
	graphs  GraphStore
	reader  GraphReader
	runs    RunStore
	cursors CursorStore
	metrics MetricsCache
	now     func() time.Time
	newID   func() string
}

// Option customizes a FlowService.
type Option func(*FlowService)

// WithGraphCache routes published graph reads through a cache.
func WithGraphCache(reader GraphReader) Option {
	return func(s *FlowService) { s.reader = reader }
}

// WithMetricsCache memoizes Metrics results.
func WithMetricsCache(cache MetricsCache) Option {
	return func(s *FlowService) { s.metrics = cache }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *FlowService) { s.now = now }
}

// WithIDGenerator is used by tests for deterministic ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *FlowService) { s.newID = newID }
}

func NewFlowService(graphs GraphStore, runs RunStore, cursors CursorStore, opts ...Option) *FlowService {
	s := &FlowService{
		graphs:  graphs,
		reader:  graphs,
		runs:    runs,
		cursors: cursors,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
