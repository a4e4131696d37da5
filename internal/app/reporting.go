package app

import (
	"context"

	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
)

// Preview simulates the path a response set takes through any version,
// drafts included.
func (s *FlowService) Preview(ctx context.Context, versionID string, responses domain.Responses) ([]flow.PathStep, error) {
	graph, err := s.graphs.LoadGraph(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return flow.SimulatePath(graph.Nodes, graph.Edges, responses), nil
}

// Metrics aggregates every run of a version. Results are cached per run-set
// fingerprint when a MetricsCache is configured.
func (s *FlowService) Metrics(ctx context.Context, versionID string) (domain.AnalyticsMetrics, error) {
	metrics, _, err := s.metricsWithRuns(ctx, versionID)
	return metrics, err
}

// Export returns the metrics together with the runs they were built from.
func (s *FlowService) Export(ctx context.Context, versionID string) (domain.RunExport, error) {
	metrics, runs, err := s.metricsWithRuns(ctx, versionID)
	if err != nil {
		return domain.RunExport{}, err
	}
	if runs == nil {
		runs = []domain.QuizRun{}
	}
	return domain.RunExport{Metrics: metrics, Runs: runs}, nil
}

func (s *FlowService) metricsWithRuns(ctx context.Context, versionID string) (domain.AnalyticsMetrics, []domain.QuizRun, error) {
	graph, err := s.reader.LoadGraph(ctx, versionID)
	if err != nil {
		return domain.AnalyticsMetrics{}, nil, err
	}
	runs, err := s.runs.ListRuns(ctx, versionID)
	if err != nil {
		return domain.AnalyticsMetrics{}, nil, err
	}

	compute := func() domain.AnalyticsMetrics {
		return flow.ComputeMetrics(graph.Nodes, runs)
	}
	if s.metrics == nil {
		return compute(), runs, nil
	}
	metrics, err := s.metrics.GetOrCompute(ctx, flow.MetricsFingerprint(versionID, graph.Nodes, runs), compute)
	if err != nil {
		return domain.AnalyticsMetrics{}, nil, err
	}
	return metrics, runs, nil
}
