package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"quizflow-service/internal/domain"
)

func TestMetricsFingerprint(t *testing.T) {
	done := time.Unix(10, 0)
	nodes := []domain.QuizNode{question("n1", "start"), result("n2", "done")}
	runs := []domain.QuizRun{
		{ID: "r1", Responses: responses("start", "yes")},
		{ID: "r2", Responses: responses("start", "no"), CompletedAt: &done},
	}
	base := MetricsFingerprint("v1", nodes, runs)

	t.Run("independent of run order", func(t *testing.T) {
		swapped := []domain.QuizRun{runs[1], runs[0]}
		assert.Equal(t, base, MetricsFingerprint("v1", nodes, swapped))
	})

	t.Run("changes with a new answer", func(t *testing.T) {
		changed := []domain.QuizRun{{ID: "r1", Responses: responses("start", "yes", "age", 30)}, runs[1]}
		assert.NotEqual(t, base, MetricsFingerprint("v1", nodes, changed))
	})

	t.Run("changes on completion", func(t *testing.T) {
		completed := []domain.QuizRun{{ID: "r1", Responses: responses("start", "yes"), CompletedAt: &done}, runs[1]}
		assert.NotEqual(t, base.Digest, MetricsFingerprint("v1", nodes, completed).Digest)
	})

	t.Run("changes with the node set", func(t *testing.T) {
		grown := append([]domain.QuizNode{}, nodes...)
		grown = append(grown, result("n3", "other"))
		assert.NotEqual(t, base, MetricsFingerprint("v1", grown, runs))

		renamed := []domain.QuizNode{question("n1", "start"), result("n2", "finished")}
		assert.NotEqual(t, base, MetricsFingerprint("v1", renamed, runs))

		assert.NotEqual(t, base, MetricsFingerprint("v1", nil, runs))
		assert.Equal(t, base.Digest, MetricsFingerprint("v1", nil, runs).Digest, "run digest only covers runs")
	})

	t.Run("string carries version and count", func(t *testing.T) {
		assert.Equal(t, "v1", base.VersionID)
		assert.Equal(t, 2, base.RunCount)
		assert.Contains(t, base.String(), "v1:2:")
	})
}
