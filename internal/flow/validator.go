package flow

import (
	"fmt"

	"quizflow-service/internal/domain"
)

// ValidationResult is the outcome of Validate. Errors block publishing,
// warnings are only surfaced.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate runs the static checks a graph must pass before it is published.
// Cycles are reported as warnings because loop-back flows are allowed.
func Validate(nodes []domain.QuizNode, edges []domain.QuizEdge) ValidationResult {
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}

	if len(nodes) == 0 {
		res.errorf("quiz has no nodes")
	}

	byID := make(map[string]domain.QuizNode, len(nodes))
	keyOwner := make(map[string]string, len(nodes))
	hasResult := false
	for _, n := range nodes {
		byID[n.ID] = n
		if n.Type == domain.NodeResult {
			hasResult = true
		}
		if n.Key == "" {
			res.errorf("node %s has an empty key", n.ID)
			continue
		}
		if owner, dup := keyOwner[n.Key]; dup {
			res.errorf("duplicate node key %q used by nodes %s and %s", n.Key, owner, n.ID)
			continue
		}
		keyOwner[n.Key] = n.ID
	}
	if !hasResult {
		res.errorf("quiz has no result node")
	}

	degree := make(map[string]int, len(nodes))
	outDegree := make(map[string]int, len(nodes))
	defaults := make(map[string]int, len(nodes))
	adjacency := make(map[string][]string, len(nodes))
	for _, e := range edges {
		degree[e.FromNodeID]++
		degree[e.ToNodeID]++

		_, fromOK := byID[e.FromNodeID]
		_, toOK := byID[e.ToNodeID]
		if !fromOK {
			res.errorf("edge %s references unknown source node %s", e.ID, e.FromNodeID)
		}
		if !toOK {
			res.errorf("edge %s references unknown target node %s", e.ID, e.ToNodeID)
		}
		if fromOK {
			outDegree[e.FromNodeID]++
			if e.IsDefault {
				defaults[e.FromNodeID]++
			}
		}
		if fromOK && toOK {
			adjacency[e.FromNodeID] = append(adjacency[e.FromNodeID], e.ToNodeID)
		}

		if e.Condition != nil {
			if err := e.Condition.Validate(); err != nil {
				res.warnf("edge %s: %v", e.ID, err)
			} else if _, known := keyOwner[e.Condition.Field]; !known {
				res.warnf("edge %s condition references unknown key %q", e.ID, e.Condition.Field)
			}
		}
	}

	start, hasStart := InitialNode(nodes)
	for _, n := range nodes {
		if degree[n.ID] == 0 {
			if (!hasStart || n.ID != start.ID) && n.Type != domain.NodeQuestion {
				res.warnf("node %s is not connected to any edge", label(n))
			}
			continue
		}
		if outDegree[n.ID] == 0 && !IsTerminal(n) {
			res.warnf("node %s has no outgoing edges and is not a result node", label(n))
		}
		if defaults[n.ID] > 1 {
			res.warnf("node %s has %d default edges; the first by priority wins", label(n), defaults[n.ID])
		}
	}

	if hasStart {
		reached := reachable(start.ID, adjacency)
		for _, n := range nodes {
			if degree[n.ID] > 0 && !reached[n.ID] {
				res.warnf("node %s is not reachable from the start node", label(n))
			}
		}
	}

	if id, found := findCycle(nodes, adjacency); found {
		res.warnf("cycle detected involving node %s", label(byID[id]))
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

func reachable(from string, adjacency map[string][]string) map[string]bool {
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[id] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// findCycle colors nodes during a depth-first search. Gray nodes are on the
// current recursion stack, so reaching one closes a cycle.
func findCycle(nodes []domain.QuizNode, adjacency map[string][]string) (string, bool) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(nodes))

	var visit func(id string) (string, bool)
	visit = func(id string) (string, bool) {
		color[id] = gray
		for _, next := range adjacency[id] {
			switch color[next] {
			case gray:
				return next, true
			case white:
				if hit, ok := visit(next); ok {
					return hit, true
				}
			}
		}
		color[id] = black
		return "", false
	}

	for _, n := range nodes {
		if color[n.ID] == white {
			if hit, ok := visit(n.ID); ok {
				return hit, true
			}
		}
	}
	return "", false
}

func label(n domain.QuizNode) string {
	if n.Key == "" {
		return n.ID
	}
	return fmt.Sprintf("%s (%s)", n.ID, n.Key)
}
