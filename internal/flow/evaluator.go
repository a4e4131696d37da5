package flow

import (
	"strings"

	"quizflow-service/internal/domain"
)

// Evaluate reports whether cond matches responses. A nil condition always
// matches. A missing answer, a type mismatch or an unknown operator yields
// false.
func Evaluate(cond *domain.Condition, responses domain.Responses) bool {
	if cond == nil {
		return true
	}
	answer, ok := responses.Get(cond.Field)
	if !ok {
		return false
	}

	switch cond.Operator {
	case domain.OpEquals:
		return domain.ValuesEqual(answer, cond.Value)
	case domain.OpNotEquals:
		return !domain.ValuesEqual(answer, cond.Value)
	case domain.OpContains:
		s, ok := answer.(string)
		if !ok {
			return false
		}
		needle, ok := cond.Value.(string)
		if !ok {
			needle = domain.Stringify(cond.Value)
		}
		return strings.Contains(s, needle)
	case domain.OpGreaterThan:
		// NaN on either side compares false.
		return domain.ToNumber(answer) > domain.ToNumber(cond.Value)
	case domain.OpLessThan:
		return domain.ToNumber(answer) < domain.ToNumber(cond.Value)
	case domain.OpInList:
		list, ok := domain.AsList(cond.Value)
		if !ok {
			return false
		}
		return containsValue(list, answer)
	case domain.OpIncludes:
		list, ok := domain.AsList(answer)
		if !ok {
			return false
		}
		return containsValue(list, cond.Value)
	default:
		return false
	}
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if domain.ValuesEqual(item, v) {
			return true
		}
	}
	return false
}
