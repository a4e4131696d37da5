package flow

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"quizflow-service/internal/domain"
)

func run(id string, completed bool, kv ...any) domain.QuizRun {
	r := domain.QuizRun{ID: id, VersionID: "v1", StartedAt: time.Unix(0, 0), Responses: responses(kv...)}
	if completed {
		at := time.Unix(100, 0)
		r.CompletedAt = &at
	}
	return r
}

func funnelStep(t *testing.T, m domain.AnalyticsMetrics, nodeID string) domain.FunnelStep {
	t.Helper()
	for _, s := range m.Funnel {
		if s.NodeID == nodeID {
			return s
		}
	}
	t.Fatalf("node %s missing from funnel", nodeID)
	return domain.FunnelStep{}
}

func funnelNodes() []domain.QuizNode {
	return []domain.QuizNode{question("n1", "goal"), question("n2", "age"), result("n3", "plan")}
}

func TestComputeMetrics_NoRuns(t *testing.T) {
	var m domain.AnalyticsMetrics
	require.NotPanics(t, func() { m = ComputeMetrics(funnelNodes(), nil) })

	assert.Equal(t, 0, m.TotalRuns)
	assert.Equal(t, float64(0), m.CompletionRate)
	assert.Equal(t, float64(0), m.AverageQuestionsPerRun)
	assert.Empty(t, m.MostDroppedQuestions)
	for _, s := range m.Funnel {
		assert.Equal(t, float64(0), s.DropOffRate)
		assert.False(t, math.IsNaN(s.DropOffRate))
	}

	_, err := json.Marshal(m)
	assert.NoError(t, err, "zero metrics must be encodable")
}

func TestComputeMetrics_NoDropOffWhenEveryoneMovesOn(t *testing.T) {
	var runs []domain.QuizRun
	for i := 0; i < 6; i++ {
		runs = append(runs, run("r"+string(rune('a'+i)), false, "goal", "lose", "age", 30))
	}
	for i := 0; i < 4; i++ {
		runs = append(runs, run("empty"+string(rune('a'+i)), false))
	}

	m := ComputeMetrics(funnelNodes(), runs)
	assert.Equal(t, 10, m.TotalRuns)
	goal := funnelStep(t, m, "n1")
	assert.Equal(t, 6, goal.StartCount)
	assert.Equal(t, float64(0), goal.DropOffRate)
}

func TestComputeMetrics_HalfDropOff(t *testing.T) {
	var runs []domain.QuizRun
	for i := 0; i < 3; i++ {
		runs = append(runs, run("both"+string(rune('a'+i)), false, "goal", "lose", "age", 30))
	}
	for i := 0; i < 3; i++ {
		runs = append(runs, run("goal"+string(rune('a'+i)), false, "goal", "gain"))
	}
	for i := 0; i < 4; i++ {
		runs = append(runs, run("empty"+string(rune('a'+i)), false))
	}

	m := ComputeMetrics(funnelNodes(), runs)
	goal := funnelStep(t, m, "n1")
	assert.Equal(t, 6, goal.StartCount)
	assert.Equal(t, 3, goal.DropOffCount)
	assert.InDelta(t, 50.0, goal.DropOffRate, 1e-9)

	age := funnelStep(t, m, "n2")
	assert.Equal(t, 3, age.StartCount)
	assert.InDelta(t, 100.0, age.DropOffRate, 1e-9)

	plan := funnelStep(t, m, "n3")
	assert.Equal(t, 0, plan.StartCount)
	assert.Equal(t, float64(0), plan.DropOffRate)

	assert.Equal(t, []string{"n2", "n1"}, m.MostDroppedQuestions)
	assert.InDelta(t, 0.9, m.AverageQuestionsPerRun, 1e-9)
}

func TestComputeMetrics_CompletedRunsNeverDrop(t *testing.T) {
	runs := []domain.QuizRun{
		run("r1", true, "goal", "lose", "age", 30),
		run("r2", true, "goal", "lose", "age", 40),
		run("r3", false, "goal", "gain"),
		run("r4", false),
	}

	m := ComputeMetrics(funnelNodes(), runs)
	assert.Equal(t, 2, m.CompletedRuns)
	assert.InDelta(t, 50.0, m.CompletionRate, 1e-9)
	assert.Equal(t, float64(0), funnelStep(t, m, "n2").DropOffRate)
	assert.InDelta(t, 100.0/3, funnelStep(t, m, "n1").DropOffRate, 1e-9)
}

func TestComputeMetrics_ResponseDistributionIsVerbatim(t *testing.T) {
	runs := []domain.QuizRun{
		run("r1", false, "goal", "Lose", "age", 30),
		run("r2", false, "goal", "lose", "age", 30),
		run("r3", false, "goal", "lose", "tags", []any{"a", "b"}),
	}

	m := ComputeMetrics(funnelNodes(), runs)
	assert.Equal(t, map[string]int{"Lose": 1, "lose": 2}, m.ResponseDistribution["goal"])
	assert.Equal(t, map[string]int{"30": 2}, m.ResponseDistribution["age"])
	assert.Equal(t, map[string]int{`["a","b"]`: 1}, m.ResponseDistribution["tags"])
}

func TestComputeMetrics_MostDroppedCapped(t *testing.T) {
	keys := []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7"}
	var nodes []domain.QuizNode
	var runs []domain.QuizRun
	for i, k := range keys {
		nodes = append(nodes, question("n"+k, k))
		// run i answers q1..q(i+1) and stops there
		var kv []any
		for _, answered := range keys[:i+1] {
			kv = append(kv, answered, true)
		}
		runs = append(runs, run("r"+k, false, kv...))
	}

	m := ComputeMetrics(nodes, runs)
	assert.Equal(t, []string{"nq7", "nq6", "nq5", "nq4", "nq3"}, m.MostDroppedQuestions)
}
