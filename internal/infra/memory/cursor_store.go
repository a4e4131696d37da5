package memory

import (
	"context"
	"sync"
)

// CursorStore is an in-memory implementation of app.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[string]string
}

func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[string]string),
	}
}

func (s *CursorStore) SetCursor(_ context.Context, runID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[runID] = nodeID
	return nil
}

func (s *CursorStore) Cursor(_ context.Context, runID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodeID, ok := s.cursors[runID]
	return nodeID, ok, nil
}

func (s *CursorStore) ClearCursor(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, runID)
	return nil
}
