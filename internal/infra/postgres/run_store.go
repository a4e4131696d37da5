package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quizflow-service/internal/domain"
)

// RunStore keeps runs and their answers in Postgres through pgx. Writes to
// one run lock its row first, so concurrent answers queue up.
type RunStore struct {
	pool *pgxpool.Pool
}

func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

func (s *RunStore) CreateRun(ctx context.Context, run domain.QuizRun) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_runs (id, version_id, user_id, email, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.VersionID, run.UserID, run.Email, run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, p := range run.Responses.Pairs() {
		if _, err := s.RecordResponse(ctx, run.ID, p.Key, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *RunStore) GetRun(ctx context.Context, runID string) (domain.QuizRun, error) {
	return getRun(ctx, s.pool, runID)
}

func (s *RunStore) RecordResponse(ctx context.Context, runID, nodeKey string, value any) (domain.QuizRun, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return domain.QuizRun{}, fmt.Errorf("encode response %s: %w", nodeKey, err)
	}

	var run domain.QuizRun
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockOpenRun(ctx, tx, runID); err != nil {
			return err
		}
		// Re-answering keeps the key's original position.
		if _, err := tx.Exec(ctx,
			`INSERT INTO quiz_run_responses (run_id, node_key, seq, value)
			 VALUES ($1, $2, (SELECT COALESCE(MAX(seq), 0) + 1 FROM quiz_run_responses WHERE run_id = $1), $3)
			 ON CONFLICT (run_id, node_key) DO UPDATE SET value = EXCLUDED.value`,
			runID, nodeKey, string(raw)); err != nil {
			return fmt.Errorf("upsert response: %w", err)
		}
		run, err = getRun(ctx, tx, runID)
		return err
	})
	return run, err
}

func (s *RunStore) CompleteRun(ctx context.Context, runID string, at time.Time) (domain.QuizRun, error) {
	var run domain.QuizRun
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockOpenRun(ctx, tx, runID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE quiz_runs SET completed_at = $2 WHERE id = $1`, runID, at); err != nil {
			return fmt.Errorf("complete run: %w", err)
		}
		var err error
		run, err = getRun(ctx, tx, runID)
		return err
	})
	return run, err
}

// ListRuns returns the runs of a version in start order with their answers.
func (s *RunStore) ListRuns(ctx context.Context, versionID string) ([]domain.QuizRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, version_id, user_id, email, started_at, completed_at
		 FROM quiz_runs WHERE version_id = $1 ORDER BY seq`, versionID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs := make([]domain.QuizRun, 0)
	index := make(map[string]int)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[run.ID] = len(runs)
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	rows, err = s.pool.Query(ctx,
		`SELECT r.run_id, r.node_key, r.value
		 FROM quiz_run_responses r JOIN quiz_runs q ON q.id = r.run_id
		 WHERE q.version_id = $1 ORDER BY r.run_id, r.seq`, versionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var runID, key string
		var raw []byte
		if err := rows.Scan(&runID, &key, &raw); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		i, ok := index[runID]
		if !ok {
			continue
		}
		value, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("decode response %s/%s: %w", runID, key, err)
		}
		runs[i].Responses.Set(key, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return runs, nil
}

func (s *RunStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func lockOpenRun(ctx context.Context, tx pgx.Tx, runID string) error {
	var completedAt *time.Time
	err := tx.QueryRow(ctx, `SELECT completed_at FROM quiz_runs WHERE id = $1 FOR UPDATE`, runID).Scan(&completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("lock run: %w", err)
	}
	if completedAt != nil {
		return domain.ErrRunCompleted
	}
	return nil
}

func getRun(ctx context.Context, q querier, runID string) (domain.QuizRun, error) {
	run, err := scanRun(q.QueryRow(ctx,
		`SELECT id, version_id, user_id, email, started_at, completed_at FROM quiz_runs WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizRun{}, domain.ErrRunNotFound
	}
	if err != nil {
		return domain.QuizRun{}, err
	}

	rows, err := q.Query(ctx,
		`SELECT node_key, value FROM quiz_run_responses WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return domain.QuizRun{}, fmt.Errorf("load responses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return domain.QuizRun{}, fmt.Errorf("scan response: %w", err)
		}
		value, err := decodeValue(raw)
		if err != nil {
			return domain.QuizRun{}, fmt.Errorf("decode response %s: %w", key, err)
		}
		run.Responses.Set(key, value)
	}
	return run, rows.Err()
}

func scanRun(row pgx.Row) (domain.QuizRun, error) {
	var run domain.QuizRun
	err := row.Scan(&run.ID, &run.VersionID, &run.UserID, &run.Email, &run.StartedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizRun{}, err
	}
	if err != nil {
		return domain.QuizRun{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}

func decodeValue(raw []byte) (any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}
