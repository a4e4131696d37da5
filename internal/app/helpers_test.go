package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"quizflow-service/internal/app"
	"quizflow-service/internal/domain"
	"quizflow-service/internal/infra/memory"
)

type testEnv struct {
	service *app.FlowService
	graphs  *memory.GraphStore
	runs    *memory.RunStore
	cursors *memory.CursorStore
	clock   *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Now advances one second per call so timestamps are strictly ordered.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestEnv(opts ...app.Option) *testEnv {
	env := &testEnv{
		graphs:  memory.NewGraphStore(),
		runs:    memory.NewRunStore(),
		cursors: memory.NewCursorStore(),
		clock:   &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	var mu sync.Mutex
	seq := 0
	newID := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	opts = append([]app.Option{app.WithClock(env.clock.Now), app.WithIDGenerator(newID)}, opts...)
	env.service = app.NewFlowService(env.graphs, env.runs, env.cursors, opts...)
	return env
}

// ageQuiz is the eligibility quiz used across tests:
//
//	start (yes/no) --yes--> age --> >17 adult | default minor
//	               --default--> nope
type ageQuiz struct {
	version domain.QuizVersion
	start   domain.QuizNode
	age     domain.QuizNode
	adult   domain.QuizNode
	minor   domain.QuizNode
	nope    domain.QuizNode
}

func buildAgeQuiz(t *testing.T, env *testEnv, name string) ageQuiz {
	t.Helper()
	ctx := context.Background()

	version, err := env.service.CreateVersion(ctx, name, "editor@example.com")
	if err != nil {
		t.Fatalf("create version: %v", err)
	}
	q := ageQuiz{version: version}

	add := func(n domain.QuizNode) domain.QuizNode {
		t.Helper()
		created, err := env.service.AddNode(ctx, version.ID, n)
		if err != nil {
			t.Fatalf("add node %s: %v", n.Key, err)
		}
		return created
	}
	q.start = add(domain.QuizNode{
		Type: domain.NodeQuestion, Key: "start", Title: "Are you eligible?", OrderIndex: 0, IsActive: true,
		Config: domain.NodeConfig{
			QuestionType: domain.QuestionSingleChoice,
			Options:      []domain.Option{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}},
			Required:     true,
		},
	})
	q.age = add(domain.QuizNode{
		Type: domain.NodeQuestion, Key: "age", Title: "How old are you?", OrderIndex: 1, IsActive: true,
		Config: domain.NodeConfig{QuestionType: domain.QuestionNumber, Required: true},
	})
	q.adult = add(domain.QuizNode{Type: domain.NodeResult, Key: "adult", Title: "Welcome aboard", OrderIndex: 2})
	q.minor = add(domain.QuizNode{Type: domain.NodeResult, Key: "minor", Title: "Come back later", OrderIndex: 3})
	q.nope = add(domain.QuizNode{Type: domain.NodeResult, Key: "nope", Title: "Maybe next time", OrderIndex: 4})

	for _, e := range []domain.QuizEdge{
		{FromNodeID: q.start.ID, ToNodeID: q.age.ID, Priority: 0,
			Condition: &domain.Condition{Field: "start", Operator: domain.OpEquals, Value: "yes"}},
		{FromNodeID: q.start.ID, ToNodeID: q.nope.ID, Priority: 1, IsDefault: true},
		{FromNodeID: q.age.ID, ToNodeID: q.adult.ID, Priority: 0,
			Condition: &domain.Condition{Field: "age", Operator: domain.OpGreaterThan, Value: 17}},
		{FromNodeID: q.age.ID, ToNodeID: q.minor.ID, Priority: 1, IsDefault: true},
	} {
		if _, err := env.service.AddEdge(ctx, version.ID, e); err != nil {
			t.Fatalf("add edge: %v", err)
		}
	}
	return q
}

func publishAgeQuiz(t *testing.T, env *testEnv, name string) ageQuiz {
	t.Helper()
	q := buildAgeQuiz(t, env, name)
	version, _, err := env.service.PublishVersion(context.Background(), q.version.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	q.version = version
	return q
}
