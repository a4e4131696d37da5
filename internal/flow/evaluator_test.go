package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"quizflow-service/internal/domain"
)

func TestEvaluate_NilConditionMatches(t *testing.T) {
	assert.True(t, Evaluate(nil, domain.Responses{}))
}

func TestEvaluate_MissingFieldIsFalse(t *testing.T) {
	ops := []domain.Operator{
		domain.OpEquals, domain.OpNotEquals, domain.OpContains, domain.OpGreaterThan,
		domain.OpLessThan, domain.OpInList, domain.OpIncludes, "bogus",
	}
	r := responses("other", "x")
	for _, op := range ops {
		cond := &domain.Condition{Field: "goal", Operator: op, Value: "x"}
		assert.False(t, Evaluate(cond, r), "operator %s", op)
	}
}

func TestEvaluate_Operators(t *testing.T) {
	tests := []struct {
		name   string
		answer any
		op     domain.Operator
		value  any
		want   bool
	}{
		{"equals string", "lose_weight", domain.OpEquals, "lose_weight", true},
		{"equals is case sensitive", "Lose_Weight", domain.OpEquals, "lose_weight", false},
		{"equals numbers across types", float64(18), domain.OpEquals, 18, true},
		{"equals does not coerce strings", "18", domain.OpEquals, 18, false},
		{"not equals", "a", domain.OpNotEquals, "b", true},
		{"not equals same", "a", domain.OpNotEquals, "a", false},
		{"contains substring", "build muscle fast", domain.OpContains, "muscle", true},
		{"contains missing", "build muscle", domain.OpContains, "fat", false},
		{"contains on non string", 42, domain.OpContains, "4", false},
		{"greater than", 30, domain.OpGreaterThan, 18, true},
		{"greater than numeric string", "30", domain.OpGreaterThan, 18, true},
		{"greater than equal", 18, domain.OpGreaterThan, 18, false},
		{"greater than NaN", "abc", domain.OpGreaterThan, 18, false},
		{"less than", 10, domain.OpLessThan, 18, true},
		{"less than NaN", "abc", domain.OpLessThan, 18, false},
		{"less than empty string", "", domain.OpLessThan, 18, false},
		{"in list", "b", domain.OpInList, []any{"a", "b"}, true},
		{"in list typed slice", "b", domain.OpInList, []string{"a", "b"}, true},
		{"in list absent", "c", domain.OpInList, []any{"a", "b"}, false},
		{"in list non list value", "a", domain.OpInList, "a", false},
		{"includes", []any{"yoga", "running"}, domain.OpIncludes, "running", true},
		{"includes absent", []any{"yoga"}, domain.OpIncludes, "running", false},
		{"includes non list answer", "running", domain.OpIncludes, "running", false},
		{"unknown operator", "x", domain.Operator("matches"), "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := &domain.Condition{Field: "f", Operator: tt.op, Value: tt.value}
			assert.Equal(t, tt.want, Evaluate(cond, responses("f", tt.answer)))
		})
	}
}

func TestEvaluate_NaNComparisonFailsClosed(t *testing.T) {
	cond := &domain.Condition{Field: "age", Operator: domain.OpGreaterThan, Value: 18}
	assert.NotPanics(t, func() {
		assert.False(t, Evaluate(cond, responses("age", "abc")))
	})
}

func TestEvaluate_Idempotent(t *testing.T) {
	cond := &domain.Condition{Field: "tags", Operator: domain.OpIncludes, Value: "a"}
	r := responses("tags", []any{"a"})
	first := Evaluate(cond, r)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Evaluate(cond, r))
	}
}
