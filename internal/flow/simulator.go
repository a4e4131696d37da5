package flow

import "quizflow-service/internal/domain"

// MaxSimulationSteps caps a simulated path. A path of exactly this length
// was probably truncated and deserves a manual look.
const MaxSimulationSteps = 100

// PathStep is one node visited by SimulatePath.
type PathStep struct {
	NodeID    string          `json:"nodeId"`
	NodeType  domain.NodeType `json:"nodeType"`
	NodeTitle string          `json:"nodeTitle"`
	Response  any             `json:"response"`
}

// SimulatePath walks the graph from the initial node with a fixed response
// set and returns the nodes visited. The walk stops at a result node, at a
// dead end, before revisiting a node, or after MaxSimulationSteps steps.
func SimulatePath(nodes []domain.QuizNode, edges []domain.QuizEdge, responses domain.Responses) []PathStep {
	current, ok := InitialNode(nodes)
	if !ok {
		return []PathStep{}
	}

	byID := make(map[string]domain.QuizNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	path := make([]PathStep, 0, len(nodes))
	visited := make(map[string]bool, len(nodes))
	for len(path) < MaxSimulationSteps {
		visited[current.ID] = true
		answer, _ := responses.Get(current.Key)
		path = append(path, PathStep{
			NodeID:    current.ID,
			NodeType:  current.Type,
			NodeTitle: current.Title,
			Response:  answer,
		})
		if IsTerminal(current) {
			break
		}

		nextID, ok := NextNode(current.ID, edges, responses)
		if !ok || visited[nextID] {
			break
		}
		next, ok := byID[nextID]
		if !ok {
			break
		}
		current = next
	}
	return path
}
