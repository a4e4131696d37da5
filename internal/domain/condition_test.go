package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestConditionKeepsUnknownFields(t *testing.T) {
	var c Condition
	if err := json.Unmarshal([]byte(`{"field":"age","operator":"greater_than","value":18,"label":"adults"}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Field != "age" || c.Operator != OpGreaterThan || c.Value != float64(18) {
		t.Fatalf("unexpected condition %+v", c)
	}
	if string(c.Extra["label"]) != `"adults"` {
		t.Fatalf("expected extra field preserved, got %v", c.Extra)
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"label":"adults"`) {
		t.Fatalf("expected extra field re-emitted, got %s", out)
	}
}

func TestConditionValidate(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		ok   bool
	}{
		{"valid", Condition{Field: "goal", Operator: OpEquals, Value: "x"}, true},
		{"missing field", Condition{Operator: OpEquals}, false},
		{"unknown operator", Condition{Field: "goal", Operator: "regex"}, false},
		{"in_list needs list", Condition{Field: "goal", Operator: OpInList, Value: "x"}, false},
		{"in_list typed slice", Condition{Field: "goal", Operator: OpInList, Value: []string{"x"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidCondition) {
				t.Fatalf("expected ErrInvalidCondition, got %v", err)
			}
		})
	}
}

func TestNodeConfigAcceptsAnswer(t *testing.T) {
	cfg := NodeConfig{
		QuestionType: QuestionSingleChoice,
		Options:      []Option{{Label: "Lose", Value: "lose"}, {Label: "Gain", Value: "gain"}},
		Required:     true,
	}
	if !cfg.AcceptsAnswer("lose") || cfg.AcceptsAnswer("other") || cfg.AcceptsAnswer(nil) {
		t.Fatalf("single choice validation mismatch")
	}

	multi := NodeConfig{QuestionType: QuestionMultiChoice, Options: []Option{{Value: 1}, {Value: 2}}}
	if !multi.AcceptsAnswer([]any{float64(1), 2}) || multi.AcceptsAnswer([]any{3}) || multi.AcceptsAnswer(1) {
		t.Fatalf("multi choice validation mismatch")
	}

	if !(NodeConfig{QuestionType: QuestionText}).AcceptsAnswer("anything") {
		t.Fatalf("free text should accept any value")
	}
}

func TestNodeConfigJSONKeepsEditorFields(t *testing.T) {
	var cfg NodeConfig
	raw := `{"questionType":"single_choice","options":[{"label":"A","value":"a"}],"layout":"grid"}`
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.QuestionType != QuestionSingleChoice || len(cfg.Options) != 1 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	out, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"layout":"grid"`) {
		t.Fatalf("expected layout preserved, got %s", out)
	}
}
