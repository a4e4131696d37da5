package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"quizflow-service/internal/domain"
)

type versionRow struct {
	bun.BaseModel `bun:"table:quiz_versions,alias:v"`

	ID          string     `bun:"id,pk"`
	Name        string     `bun:"name,notnull"`
	Status      string     `bun:"status,notnull"`
	CreatedBy   string     `bun:"created_by,notnull"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull"`
	PublishedAt *time.Time `bun:"published_at"`
}

// nodeRow and edgeRow keep JSONB payloads as text; the domain codecs own
// their shape.
type nodeRow struct {
	bun.BaseModel `bun:"table:quiz_nodes,alias:n"`

	ID          string `bun:"id,pk"`
	VersionID   string `bun:"version_id,notnull"`
	Type        string `bun:"type,notnull"`
	Key         string `bun:"key,notnull"`
	Title       string `bun:"title,notnull"`
	Description string `bun:"description,notnull"`
	OrderIndex  int    `bun:"order_index,notnull"`
	IsActive    bool   `bun:"is_active,notnull"`
	ConfigJSON  string `bun:"config_json,notnull"`
	Seq         int64  `bun:"seq,scanonly"`
}

type edgeRow struct {
	bun.BaseModel `bun:"table:quiz_edges,alias:e"`

	ID            string  `bun:"id,pk"`
	VersionID     string  `bun:"version_id,notnull"`
	FromNodeID    string  `bun:"from_node_id,notnull"`
	ToNodeID      string  `bun:"to_node_id,notnull"`
	ConditionJSON *string `bun:"condition_json"`
	Priority      int     `bun:"priority,notnull"`
	IsDefault     bool    `bun:"is_default,notnull"`
	Seq           int64   `bun:"seq,scanonly"`
}

func toVersionRow(v domain.QuizVersion) versionRow {
	return versionRow{
		ID:          v.ID,
		Name:        v.Name,
		Status:      string(v.Status),
		CreatedBy:   v.CreatedBy,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		PublishedAt: v.PublishedAt,
	}
}

func (r versionRow) domain() domain.QuizVersion {
	return domain.QuizVersion{
		ID:          r.ID,
		Name:        r.Name,
		Status:      domain.VersionStatus(r.Status),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		PublishedAt: r.PublishedAt,
	}
}

func toNodeRow(n domain.QuizNode) (nodeRow, error) {
	config, err := json.Marshal(n.Config)
	if err != nil {
		return nodeRow{}, fmt.Errorf("encode node %s config: %w", n.ID, err)
	}
	return nodeRow{
		ID:          n.ID,
		VersionID:   n.VersionID,
		Type:        string(n.Type),
		Key:         n.Key,
		Title:       n.Title,
		Description: n.Description,
		OrderIndex:  n.OrderIndex,
		IsActive:    n.IsActive,
		ConfigJSON:  string(config),
	}, nil
}

func (r nodeRow) domain() (domain.QuizNode, error) {
	n := domain.QuizNode{
		ID:          r.ID,
		VersionID:   r.VersionID,
		Type:        domain.NodeType(r.Type),
		Key:         r.Key,
		Title:       r.Title,
		Description: r.Description,
		OrderIndex:  r.OrderIndex,
		IsActive:    r.IsActive,
	}
	if r.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(r.ConfigJSON), &n.Config); err != nil {
			return domain.QuizNode{}, fmt.Errorf("decode node %s config: %w", r.ID, err)
		}
	}
	return n, nil
}

func toEdgeRow(e domain.QuizEdge) (edgeRow, error) {
	row := edgeRow{
		ID:         e.ID,
		VersionID:  e.VersionID,
		FromNodeID: e.FromNodeID,
		ToNodeID:   e.ToNodeID,
		Priority:   e.Priority,
		IsDefault:  e.IsDefault,
	}
	if e.Condition != nil {
		cond, err := json.Marshal(e.Condition)
		if err != nil {
			return edgeRow{}, fmt.Errorf("encode edge %s condition: %w", e.ID, err)
		}
		s := string(cond)
		row.ConditionJSON = &s
	}
	return row, nil
}

func (r edgeRow) domain() (domain.QuizEdge, error) {
	e := domain.QuizEdge{
		ID:         r.ID,
		VersionID:  r.VersionID,
		FromNodeID: r.FromNodeID,
		ToNodeID:   r.ToNodeID,
		Priority:   r.Priority,
		IsDefault:  r.IsDefault,
	}
	if r.ConditionJSON != nil && *r.ConditionJSON != "null" {
		var cond domain.Condition
		if err := json.Unmarshal([]byte(*r.ConditionJSON), &cond); err != nil {
			return domain.QuizEdge{}, fmt.Errorf("decode edge %s condition: %w", r.ID, err)
		}
		e.Condition = &cond
	}
	return e, nil
}
