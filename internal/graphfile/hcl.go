package graphfile

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"quizflow-service/internal/domain"
)

type hclGraphFile struct {
	ID    string     `hcl:"id,optional"`
	Name  string     `hcl:"name,optional"`
	Nodes []*hclNode `hcl:"node,block"`
	Edges []*hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	Key         string         `hcl:"key,label"`
	ID          string         `hcl:"id,optional"`
	Type        string         `hcl:"type"`
	Title       string         `hcl:"title,optional"`
	Description string         `hcl:"description,optional"`
	Order       *int           `hcl:"order,optional"`
	Active      *bool          `hcl:"active,optional"`
	Config      hcl.Expression `hcl:"config,optional"`
}

type hclEdge struct {
	ID       string         `hcl:"id,label"`
	From     string         `hcl:"from"`
	To       string         `hcl:"to"`
	Priority int            `hcl:"priority,optional"`
	Default  bool           `hcl:"default,optional"`
	When     hcl.Expression `hcl:"when,optional"`
}

func decodeHCL(data []byte, filename string) (domain.QuizGraph, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return domain.QuizGraph{}, diags
	}
	var parsed hclGraphFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return domain.QuizGraph{}, diags
	}

	graph := domain.QuizGraph{
		Version: domain.QuizVersion{ID: parsed.ID, Name: parsed.Name},
		Nodes:   make([]domain.QuizNode, 0, len(parsed.Nodes)),
		Edges:   make([]domain.QuizEdge, 0, len(parsed.Edges)),
	}
	for i, n := range parsed.Nodes {
		node := domain.QuizNode{
			ID:          n.ID,
			Type:        domain.NodeType(n.Type),
			Key:         n.Key,
			Title:       n.Title,
			Description: n.Description,
			OrderIndex:  i,
			IsActive:    n.Active == nil || *n.Active,
		}
		if n.Order != nil {
			node.OrderIndex = *n.Order
		}
		if err := decodeExpr(n.Config, &node.Config); err != nil {
			return domain.QuizGraph{}, fmt.Errorf("node %q config: %w", n.Key, err)
		}
		graph.Nodes = append(graph.Nodes, node)
	}
	for _, e := range parsed.Edges {
		edge := domain.QuizEdge{
			ID:         e.ID,
			FromNodeID: e.From,
			ToNodeID:   e.To,
			Priority:   e.Priority,
			IsDefault:  e.Default,
		}
		var cond domain.Condition
		ok, err := decodeExprOK(e.When, &cond)
		if err != nil {
			return domain.QuizGraph{}, fmt.Errorf("edge %q when: %w", e.ID, err)
		}
		if ok {
			edge.Condition = &cond
		}
		graph.Edges = append(graph.Edges, edge)
	}
	return graph, nil
}

func decodeExpr(expr hcl.Expression, target any) error {
	_, err := decodeExprOK(expr, target)
	return err
}

// decodeExprOK evaluates a literal expression and decodes it through its JSON
// form, so HCL payloads reach the same codecs as JSON files. ok is false when
// the attribute was absent or null.
func decodeExprOK(expr hcl.Expression, target any) (bool, error) {
	if expr == nil {
		return false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return false, diags
	}
	if val.IsNull() {
		return false, nil
	}
	raw, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, err
	}
	return true, nil
}
