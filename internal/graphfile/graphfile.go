// Package graphfile reads quiz graphs and run batches from files so they can
// be validated, simulated and measured offline.
//
// JSON and YAML files use the same document shape the HTTP API returns for a
// graph. HCL files use node and edge blocks:
//
//	name = "eligibility"
//
//	node "start" {
//	  type   = "question"
//	  title  = "Are you eligible?"
//	  config = { questionType = "single_choice", options = [{ label = "Yes", value = "yes" }] }
//	}
//
//	edge "start-done" {
//	  from = "start"
//	  to   = "done"
//	  when = { field = "start", operator = "equals", value = "yes" }
//	}
//
// Node ids default to their key and edge endpoints may name either.
package graphfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quizflow-service/internal/domain"
)

// ErrUnsupportedFormat is returned for file extensions no decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported graph file format")

// Load reads a graph from a .json, .yaml, .yml or .hcl file.
func Load(path string) (domain.QuizGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.QuizGraph{}, fmt.Errorf("read graph file: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes data using the format implied by filename's extension.
func Parse(data []byte, filename string) (domain.QuizGraph, error) {
	var (
		graph domain.QuizGraph
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		err = json.Unmarshal(data, &graph)
	case ".yaml", ".yml":
		var raw []byte
		if raw, err = yamlToJSON(data); err == nil {
			err = json.Unmarshal(raw, &graph)
		}
	case ".hcl":
		graph, err = decodeHCL(data, filename)
	default:
		return domain.QuizGraph{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return domain.QuizGraph{}, fmt.Errorf("decode %s: %w", filename, err)
	}
	return normalize(graph), nil
}

// LoadRuns reads a batch of runs from a .json or .yaml file holding either a
// list of runs or an export document with a "runs" field.
func LoadRuns(path string) ([]domain.QuizRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read runs file: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
	case ".yaml", ".yml":
		if data, err = yamlToJSON(data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	var runs []domain.QuizRun
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		err = json.Unmarshal(data, &runs)
	} else {
		var export domain.RunExport
		err = json.Unmarshal(data, &export)
		runs = export.Runs
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if runs == nil {
		runs = []domain.QuizRun{}
	}
	return runs, nil
}

// normalize fills the ids a hand-written file usually leaves out.
func normalize(graph domain.QuizGraph) domain.QuizGraph {
	if graph.Version.ID == "" {
		graph.Version.ID = graph.Version.Name
	}
	if graph.Version.Status == "" {
		graph.Version.Status = domain.StatusDraft
	}

	byKey := make(map[string]string, len(graph.Nodes))
	for i := range graph.Nodes {
		n := &graph.Nodes[i]
		if n.ID == "" {
			n.ID = n.Key
		}
		n.VersionID = graph.Version.ID
		byKey[n.Key] = n.ID
	}
	ids := make(map[string]bool, len(graph.Nodes))
	for _, n := range graph.Nodes {
		ids[n.ID] = true
	}
	resolve := func(ref string) string {
		if ids[ref] {
			return ref
		}
		if id, ok := byKey[ref]; ok {
			return id
		}
		return ref
	}

	for i := range graph.Edges {
		e := &graph.Edges[i]
		if e.ID == "" {
			e.ID = fmt.Sprintf("edge-%d", i+1)
		}
		e.VersionID = graph.Version.ID
		e.FromNodeID = resolve(e.FromNodeID)
		e.ToNodeID = resolve(e.ToNodeID)
	}
	if graph.Nodes == nil {
		graph.Nodes = []domain.QuizNode{}
	}
	if graph.Edges == nil {
		graph.Edges = []domain.QuizEdge{}
	}
	return graph
}
