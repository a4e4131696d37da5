package app

import (
	"context"

	"quizflow-service/internal/ctxlog"
	"quizflow-service/internal/domain"
	"quizflow-service/internal/flow"
)

// RunState is what the runtime surface shows after each step. Node is the
// node the run now waits on, or the result node once Completed. DeadEnd means
// the graph offered no way forward.
type RunState struct {
	Run       domain.QuizRun   `json:"run"`
	Node      *domain.QuizNode `json:"node,omitempty"`
	Completed bool             `json:"completed"`
	DeadEnd   bool             `json:"deadEnd"`
}

// StartRun opens a run on a published version and positions it on the
// initial node.
func (s *FlowService) StartRun(ctx context.Context, versionID, userID, email string) (RunState, error) {
	graph, err := s.reader.LoadGraph(ctx, versionID)
	if err != nil {
		return RunState{}, err
	}
	if !graph.Version.IsPublished() {
		return RunState{}, domain.ErrVersionNotPublished
	}
	start, ok := flow.InitialNode(graph.Nodes)
	if !ok {
		return RunState{}, domain.ErrEmptyQuiz
	}

	run := domain.QuizRun{
		ID:        s.newID(),
		VersionID: versionID,
		UserID:    userID,
		Email:     email,
		StartedAt: s.now(),
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return RunState{}, err
	}
	ctxlog.FromContext(ctx).Info("run started", "run", run.ID, "version", versionID, "user", userID)
	return s.moveTo(ctx, run, start)
}

// SubmitAnswer records value for the node the run waits on and advances it.
// Question nodes need a value their config accepts; page nodes may be passed
// with a nil value, which records nothing.
func (s *FlowService) SubmitAnswer(ctx context.Context, runID string, value any) (RunState, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return RunState{}, err
	}
	if run.IsCompleted() {
		return RunState{}, domain.ErrRunCompleted
	}
	graph, err := s.reader.LoadGraph(ctx, run.VersionID)
	if err != nil {
		return RunState{}, err
	}
	current, ok, err := s.currentNode(ctx, run, graph)
	if err != nil {
		return RunState{}, err
	}
	if !ok || flow.IsTerminal(current) {
		return RunState{}, domain.ErrRunDeadEnd
	}

	switch {
	case current.Type == domain.NodeQuestion:
		if value == nil || !current.Config.AcceptsAnswer(value) {
			return RunState{}, domain.ErrInvalidAnswer
		}
		fallthrough
	case value != nil:
		run, err = s.runs.RecordResponse(ctx, run.ID, current.Key, value)
		if err != nil {
			return RunState{}, err
		}
	}

	nextID, ok := flow.NextNode(current.ID, graph.Edges, run.Responses)
	if !ok {
		return s.deadEnd(ctx, run, current)
	}
	next, ok := graph.NodeByID(nextID)
	if !ok {
		return s.deadEnd(ctx, run, current)
	}
	return s.moveTo(ctx, run, next)
}

// GetRunState reports where a run currently stands.
func (s *FlowService) GetRunState(ctx context.Context, runID string) (RunState, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		return RunState{}, err
	}
	graph, err := s.reader.LoadGraph(ctx, run.VersionID)
	if err != nil {
		return RunState{}, err
	}
	node, ok, err := s.currentNode(ctx, run, graph)
	if err != nil {
		return RunState{}, err
	}
	state := RunState{Run: run, Completed: run.IsCompleted()}
	if ok {
		state.Node = &node
	} else if !state.Completed {
		state.DeadEnd = true
	}
	return state, nil
}

func (s *FlowService) moveTo(ctx context.Context, run domain.QuizRun, node domain.QuizNode) (RunState, error) {
	if flow.IsTerminal(node) {
		completed, err := s.runs.CompleteRun(ctx, run.ID, s.now())
		if err != nil {
			return RunState{}, err
		}
		if err := s.cursors.ClearCursor(ctx, run.ID); err != nil {
			return RunState{}, err
		}
		ctxlog.FromContext(ctx).Info("run completed", "run", run.ID, "result", node.Key)
		return RunState{Run: completed, Node: &node, Completed: true}, nil
	}
	if err := s.cursors.SetCursor(ctx, run.ID, node.ID); err != nil {
		return RunState{}, err
	}
	return RunState{Run: run, Node: &node}, nil
}

func (s *FlowService) deadEnd(ctx context.Context, run domain.QuizRun, from domain.QuizNode) (RunState, error) {
	if err := s.cursors.ClearCursor(ctx, run.ID); err != nil {
		return RunState{}, err
	}
	ctxlog.FromContext(ctx).Warn("run reached a dead end", "run", run.ID, "node", from.ID)
	return RunState{Run: run, DeadEnd: true}, nil
}

// currentNode prefers the stored cursor. Without one, the position is
// rebuilt by replaying the run's answers: the first unanswered question on
// the simulated path, or the result it ends on. A replay cut short by a loop
// resumes on the node the loop leads back to. When the last node has no way
// forward the run is at a dead end.
func (s *FlowService) currentNode(ctx context.Context, run domain.QuizRun, graph domain.QuizGraph) (domain.QuizNode, bool, error) {
	if !run.IsCompleted() {
		nodeID, ok, err := s.cursors.Cursor(ctx, run.ID)
		if err != nil {
			return domain.QuizNode{}, false, err
		}
		if ok {
			if node, found := graph.NodeByID(nodeID); found {
				return node, true, nil
			}
		}
	}

	path := flow.SimulatePath(graph.Nodes, graph.Edges, run.Responses)
	if len(path) == 0 {
		return domain.QuizNode{}, false, nil
	}
	for _, step := range path {
		node, _ := graph.NodeByID(step.NodeID)
		if node.Type == domain.NodeQuestion && !run.Responses.Has(node.Key) {
			return node, true, nil
		}
	}

	last, _ := graph.NodeByID(path[len(path)-1].NodeID)
	if flow.IsTerminal(last) {
		return last, true, nil
	}
	nextID, ok := flow.NextNode(last.ID, graph.Edges, run.Responses)
	if !ok {
		return domain.QuizNode{}, false, nil
	}
	next, found := graph.NodeByID(nextID)
	return next, found, nil
}
