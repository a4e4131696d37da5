package flow

import (
	"sort"

	"quizflow-service/internal/domain"
)

// StartNodeKey marks an explicit entry node.
const StartNodeKey = "start"

// NextNode picks the node that follows currentNodeID. Outgoing edges are
// tried in ascending priority; a default edge matches wherever it sits in
// that order. When nothing matches, any default edge is used as a fallback.
// ok is false when the node has no way forward.
func NextNode(currentNodeID string, edges []domain.QuizEdge, responses domain.Responses) (nodeID string, ok bool) {
	outgoing := OutgoingEdges(currentNodeID, edges)
	for _, e := range outgoing {
		if e.IsDefault || Evaluate(e.Condition, responses) {
			return e.ToNodeID, true
		}
	}
	for _, e := range outgoing {
		if e.IsDefault {
			return e.ToNodeID, true
		}
	}
	return "", false
}

// OutgoingEdges returns the edges leaving nodeID, stably sorted by priority.
func OutgoingEdges(nodeID string, edges []domain.QuizEdge) []domain.QuizEdge {
	var out []domain.QuizEdge
	for _, e := range edges {
		if e.FromNodeID == nodeID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// IsTerminal reports whether reaching node ends the run.
func IsTerminal(node domain.QuizNode) bool {
	return node.Type == domain.NodeResult
}

// InitialNode resolves where a run starts: the node keyed "start", else the
// first question, else the first node.
func InitialNode(nodes []domain.QuizNode) (domain.QuizNode, bool) {
	for _, n := range nodes {
		if n.Key == StartNodeKey {
			return n, true
		}
	}
	for _, n := range nodes {
		if n.Type == domain.NodeQuestion {
			return n, true
		}
	}
	if len(nodes) > 0 {
		return nodes[0], true
	}
	return domain.QuizNode{}, false
}
