package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CursorStore keeps the node each open run waits on in Redis so any
// instance can serve the next answer. Cursors expire after ttl of
// inactivity; runs without one are repositioned by replaying answers.
type CursorStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCursorStore(client *redis.Client, ttl time.Duration) *CursorStore {
	return &CursorStore{client: client, ttl: ttl}
}

func (s *CursorStore) SetCursor(ctx context.Context, runID, nodeID string) error {
	return s.client.Set(ctx, cursorKey(runID), nodeID, s.ttl).Err()
}

func (s *CursorStore) Cursor(ctx context.Context, runID string) (string, bool, error) {
	nodeID, err := s.client.Get(ctx, cursorKey(runID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return nodeID, true, nil
}

func (s *CursorStore) ClearCursor(ctx context.Context, runID string) error {
	return s.client.Del(ctx, cursorKey(runID)).Err()
}

func cursorKey(runID string) string {
	return "quiz:run:cursor:" + runID
}
