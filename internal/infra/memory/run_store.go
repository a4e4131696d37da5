package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quizflow-service/internal/domain"
)

// RunStore is an in-memory implementation of app.RunStore. All writes for
// all runs go through one mutex, which serializes per-run writes.
type RunStore struct {
	mu    sync.Mutex
	runs  map[string]*domain.QuizRun
	order []string
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*domain.QuizRun)}
}

func (s *RunStore) CreateRun(_ context.Context, run domain.QuizRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run %s already exists", run.ID)
	}
	stored := cloneRun(run)
	s.runs[run.ID] = &stored
	s.order = append(s.order, run.ID)
	return nil
}

func (s *RunStore) GetRun(_ context.Context, runID string) (domain.QuizRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return domain.QuizRun{}, domain.ErrRunNotFound
	}
	return cloneRun(*run), nil
}

func (s *RunStore) RecordResponse(_ context.Context, runID, nodeKey string, value any) (domain.QuizRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return domain.QuizRun{}, domain.ErrRunNotFound
	}
	if run.IsCompleted() {
		return domain.QuizRun{}, domain.ErrRunCompleted
	}
	run.Responses.Set(nodeKey, value)
	return cloneRun(*run), nil
}

func (s *RunStore) CompleteRun(_ context.Context, runID string, at time.Time) (domain.QuizRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return domain.QuizRun{}, domain.ErrRunNotFound
	}
	if run.IsCompleted() {
		return domain.QuizRun{}, domain.ErrRunCompleted
	}
	run.CompletedAt = &at
	return cloneRun(*run), nil
}

// ListRuns returns the runs of a version in start order.
func (s *RunStore) ListRuns(_ context.Context, versionID string) ([]domain.QuizRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QuizRun, 0)
	for _, id := range s.order {
		if run := s.runs[id]; run.VersionID == versionID {
			out = append(out, cloneRun(*run))
		}
	}
	return out, nil
}

func cloneRun(run domain.QuizRun) domain.QuizRun {
	run.Responses = run.Responses.Clone()
	if run.CompletedAt != nil {
		at := *run.CompletedAt
		run.CompletedAt = &at
	}
	return run
}
