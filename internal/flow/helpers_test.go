package flow

import "quizflow-service/internal/domain"

func question(id, key string) domain.QuizNode {
	return domain.QuizNode{ID: id, Type: domain.NodeQuestion, Key: key, Title: "Q " + key, IsActive: true}
}

func page(id, key string) domain.QuizNode {
	return domain.QuizNode{ID: id, Type: domain.NodePage, Key: key, Title: "Page " + key, IsActive: true}
}

func result(id, key string) domain.QuizNode {
	return domain.QuizNode{ID: id, Type: domain.NodeResult, Key: key, Title: "Result " + key, IsActive: true}
}

func edge(id, from, to string, priority int) domain.QuizEdge {
	return domain.QuizEdge{ID: id, FromNodeID: from, ToNodeID: to, Priority: priority}
}

func defaultEdge(id, from, to string, priority int) domain.QuizEdge {
	e := edge(id, from, to, priority)
	e.IsDefault = true
	return e
}

func when(id, from, to string, priority int, field string, op domain.Operator, value any) domain.QuizEdge {
	e := edge(id, from, to, priority)
	e.Condition = &domain.Condition{Field: field, Operator: op, Value: value}
	return e
}

func responses(kv ...any) domain.Responses {
	var r domain.Responses
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}
