package domain

import "time"

// VersionStatus is the lifecycle state of a quiz version.
type VersionStatus string

const (
	StatusDraft     VersionStatus = "draft"
	StatusPublished VersionStatus = "published"
)

// NodeType classifies a step of the flow.
type NodeType string

const (
	NodeQuestion NodeType = "question"
	NodePage     NodeType = "page"
	NodeResult   NodeType = "result"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeQuestion, NodePage, NodeResult:
		return true
	}
	return false
}

// QuizVersion is one quiz definition at a point in time.
type QuizVersion struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Status      VersionStatus `json:"status"`
	CreatedBy   string        `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	PublishedAt *time.Time    `json:"publishedAt,omitempty"`
}

// IsPublished reports whether the version is frozen.
func (v QuizVersion) IsPublished() bool {
	return v.Status == StatusPublished
}

// QuizNode is one step in a quiz graph.
type QuizNode struct {
	ID          string     `json:"id"`
	VersionID   string     `json:"versionId"`
	Type        NodeType   `json:"type"`
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	OrderIndex  int        `json:"orderIndex"`
	IsActive    bool       `json:"isActive"`
	Config      NodeConfig `json:"configJson"`
}

// QuizEdge is a directed, optionally conditional transition. A nil Condition
// always matches.
type QuizEdge struct {
	ID         string     `json:"id"`
	VersionID  string     `json:"versionId"`
	FromNodeID string     `json:"fromNodeId"`
	ToNodeID   string     `json:"toNodeId"`
	Condition  *Condition `json:"conditionJson"`
	Priority   int        `json:"priority"`
	IsDefault  bool       `json:"isDefault"`
}

// QuizGraph is a version together with its node and edge sets.
type QuizGraph struct {
	Version QuizVersion `json:"version"`
	Nodes   []QuizNode  `json:"nodes"`
	Edges   []QuizEdge  `json:"edges"`
}

// NodeByID returns the node with the given id.
func (g QuizGraph) NodeByID(id string) (QuizNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return QuizNode{}, false
}

// QuizRun is one end user's traversal of a version.
type QuizRun struct {
	ID          string     `json:"id"`
	VersionID   string     `json:"versionId"`
	UserID      string     `json:"userId"`
	Email       string     `json:"email"`
	StartedAt   time.Time  `json:"startedAt"`
	Responses   Responses  `json:"responses"`
	CompletedAt *time.Time `json:"completedAt"`
}

// IsCompleted reports whether the run reached a result node.
func (r QuizRun) IsCompleted() bool {
	return r.CompletedAt != nil
}

// FunnelStep is the reach/drop-off count for one node.
type FunnelStep struct {
	NodeID       string   `json:"nodeId"`
	NodeKey      string   `json:"nodeKey"`
	NodeTitle    string   `json:"nodeTitle"`
	NodeType     NodeType `json:"nodeType"`
	StartCount   int      `json:"startCount"`
	DropOffCount int      `json:"dropOffCount"`
	DropOffRate  float64  `json:"dropOffRate"`
}

// AnalyticsMetrics aggregates a batch of runs for dashboards.
type AnalyticsMetrics struct {
	TotalRuns              int                       `json:"totalRuns"`
	CompletedRuns          int                       `json:"completedRuns"`
	CompletionRate         float64                   `json:"completionRate"`
	AverageQuestionsPerRun float64                   `json:"averageQuestionsPerRun"`
	Funnel                 []FunnelStep              `json:"funnel"`
	MostDroppedQuestions   []string                  `json:"mostDroppedQuestions"`
	ResponseDistribution   map[string]map[string]int `json:"responseDistribution"`
}

// RunExport is the JSON export of a version's reporting data.
type RunExport struct {
	Metrics AnalyticsMetrics `json:"metrics"`
	Runs    []QuizRun        `json:"runs"`
}
